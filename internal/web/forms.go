package web

// Form validation for the login, registration and password-change
// forms. Errors are keyed by field name and re-rendered next to the
// field.

type LoginForm struct {
	Username string
	Password string
	Errors   map[string][]string
}

func (f *LoginForm) Validate() bool {
	f.Errors = map[string][]string{}
	if f.Username == "" {
		f.addError("username", "This field is required.")
	}
	if f.Password == "" {
		f.addError("password", "This field is required.")
	}
	return len(f.Errors) == 0
}

func (f *LoginForm) addError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

type RegistrationForm struct {
	Username string
	Password string
	Confirm  string
	Roles    []string
	Errors   map[string][]string
}

func (f *RegistrationForm) Validate() bool {
	f.Errors = map[string][]string{}
	if len(f.Username) < 4 || len(f.Username) > 25 {
		f.addError("username", "Field must be between 4 and 25 characters long.")
	}
	if f.Password == "" {
		f.addError("password", "This field is required.")
	}
	if f.Password != f.Confirm {
		f.addError("confirm", "Passwords must match")
	}
	return len(f.Errors) == 0
}

func (f *RegistrationForm) addError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

type ChangePasswordForm struct {
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
	Errors          map[string][]string
}

func (f *ChangePasswordForm) Validate() bool {
	f.Errors = map[string][]string{}
	if f.CurrentPassword == "" {
		f.addError("current_password", "This field is required.")
	}
	if len(f.NewPassword) < 6 {
		f.addError("new_password", "Password should be at least 6 characters long")
	}
	if f.NewPassword != f.ConfirmPassword {
		f.addError("confirm_password", "Passwords must match")
	}
	return len(f.Errors) == 0
}

func (f *ChangePasswordForm) addError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}
