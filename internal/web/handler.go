// Package web serves the HTML login, registration, settings and user
// listing pages, composing the session, CSRF and auth layers.
package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"userweb/internal/auth"
	"userweb/internal/csrf"
	"userweb/internal/flash"
	"userweb/internal/logging"
	"userweb/internal/middleware"
	"userweb/internal/session"
	"userweb/internal/store"
)

type Handler struct {
	auth     *auth.Service
	sessions *session.Manager
	log      logging.Logger
}

func NewHandler(authService *auth.Service, sessions *session.Manager, log logging.Logger) *Handler {
	return &Handler{
		auth:     authService,
		sessions: sessions,
		log:      log,
	}
}

// RegisterRoutes wires the routes. Guard composition is explicit:
// protected routes carry RequireLogin; mutating handlers verify the
// CSRF token themselves, inside the same per-session critical section
// as the action, so a double submit cannot spend one token twice.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.LoginPage)
	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/success", h.Success)

	protected := r.Group("/", middleware.RequireLogin(h.sessions))
	protected.GET("/register", h.RegisterPage)
	protected.POST("/register", h.Register)
	protected.GET("/settings", h.SettingsPage)
	protected.POST("/settings", h.Settings)
	protected.GET("/users", h.Users)

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title":  "Not Found",
			"Detail": "The page you asked for does not exist.",
		})
	})
}

// LoginPage renders the login form, reusing the session's outstanding
// CSRF token when one exists.
func (h *Handler) LoginPage(c *gin.Context) {
	var (
		token string
		msgs  []session.Flash
	)
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		t, err := csrf.Issue(s)
		if err != nil {
			return err
		}
		token = t
		msgs = flash.Drain(s)
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "login.html", gin.H{
		"CSRFToken": token,
		"Flashes":   msgs,
		"Form":      &LoginForm{},
	})
}

// Login processes a login attempt. A failed attempt re-renders the form
// with the same token still valid; success stores the user, moves the
// session to a fresh ID, rotates the CSRF token and drops any stale
// login-error flashes.
func (h *Handler) Login(c *gin.Context) {
	form := &LoginForm{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
	}

	var (
		token    string
		csrfOK   bool
		loggedIn bool
	)
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		if !csrf.Verify(s, c.PostForm("csrf_token")) {
			flash.Push(s, "Invalid or missing CSRF token", flash.CategoryDanger)
			return nil
		}
		csrfOK = true
		token = s.CSRFToken

		if !form.Validate() {
			return nil
		}

		u, err := h.auth.Authenticate(c.Request.Context(), form.Username, form.Password)
		if errors.Is(err, auth.ErrAuthFailed) {
			return nil
		}
		if err != nil {
			return err
		}

		s.User = u.Username
		// The pre-login session ID and CSRF token are both spent now.
		s.Renew()
		if _, err := csrf.Rotate(s); err != nil {
			return err
		}
		s.Flashes = nil
		flash.Push(s, "Login Successful", flash.CategorySuccess)
		loggedIn = true
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	switch {
	case !csrfOK:
		c.Redirect(http.StatusFound, "/login")
	case loggedIn:
		c.Redirect(http.StatusFound, "/success")
	default:
		form.Password = ""
		c.HTML(http.StatusOK, "login.html", gin.H{
			"CSRFToken": token,
			"Flashes": []session.Flash{
				{Message: "login incorrect", Category: flash.CategoryDanger},
			},
			"Form": form,
		})
	}
}

// Logout clears the user from the session. The session itself, with
// its CSRF token, survives.
func (h *Handler) Logout(c *gin.Context) {
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		s.User = ""
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

// Success is the post-login landing page. Anonymous callers are sent
// back to the login form without a flash.
func (h *Handler) Success(c *gin.Context) {
	var (
		user string
		msgs []session.Flash
	)
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		user = s.User
		if s.User != "" {
			msgs = flash.Drain(s)
		}
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	if user == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	c.HTML(http.StatusOK, "success.html", gin.H{
		"User":    user,
		"Flashes": msgs,
	})
}

func (h *Handler) RegisterPage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	roles, err := h.auth.ListRoles(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}

	var (
		token string
		msgs  []session.Flash
	)
	_, err = h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		t, err := csrf.Issue(s)
		if err != nil {
			return err
		}
		token = t
		msgs = flash.Drain(s)
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "register.html", gin.H{
		"CSRFToken": token,
		"Flashes":   msgs,
		"User":      user,
		"Roles":     roles,
		"Form":      &RegistrationForm{},
	})
}

// Register creates a new account. Duplicate usernames and unknown roles
// fail loudly; nothing is persisted on failure.
func (h *Handler) Register(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	form := &RegistrationForm{
		Username: c.PostForm("username"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm"),
		Roles:    c.PostFormArray("roles"),
	}

	var (
		token   string
		csrfOK  bool
		created bool
		failMsg string
	)
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		if !csrf.Verify(s, c.PostForm("csrf_token")) {
			flash.Push(s, "Invalid or missing CSRF token", flash.CategoryDanger)
			return nil
		}
		csrfOK = true
		token = s.CSRFToken

		if !form.Validate() {
			return nil
		}

		_, err := h.auth.Register(c.Request.Context(), form.Username, form.Password, form.Roles)
		var unknownRole *auth.UnknownRoleError
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			failMsg = "Username already taken"
			return nil
		case errors.As(err, &unknownRole):
			failMsg = unknownRole.Error()
			return nil
		case err != nil:
			return err
		}

		flash.Push(s, "Account created", flash.CategorySuccess)
		created = true
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	switch {
	case !csrfOK:
		c.Redirect(http.StatusFound, "/register")
	case created:
		c.Redirect(http.StatusFound, "/success")
	default:
		roles, err := h.auth.ListRoles(c.Request.Context())
		if err != nil {
			h.serverError(c, err)
			return
		}
		var msgs []session.Flash
		if failMsg != "" {
			msgs = []session.Flash{{Message: failMsg, Category: flash.CategoryDanger}}
		}
		form.Password, form.Confirm = "", ""
		c.HTML(http.StatusOK, "register.html", gin.H{
			"CSRFToken": token,
			"Flashes":   msgs,
			"User":      user,
			"Roles":     roles,
			"Form":      form,
		})
	}
}

func (h *Handler) SettingsPage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var (
		token string
		msgs  []session.Flash
	)
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		t, err := csrf.Issue(s)
		if err != nil {
			return err
		}
		token = t
		msgs = flash.Drain(s)
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "settings.html", gin.H{
		"CSRFToken": token,
		"Flashes":   msgs,
		"User":      user,
		"Form":      &ChangePasswordForm{},
	})
}

// Settings changes the logged-in user's password after re-verifying
// the current one. A wrong current password is reported, not ignored.
func (h *Handler) Settings(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	form := &ChangePasswordForm{
		CurrentPassword: c.PostForm("current_password"),
		NewPassword:     c.PostForm("new_password"),
		ConfirmPassword: c.PostForm("confirm_password"),
	}

	var (
		token    string
		csrfOK   bool
		changed  bool
		notFound bool
		failMsg  string
	)
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		if !csrf.Verify(s, c.PostForm("csrf_token")) {
			flash.Push(s, "Invalid or missing CSRF token", flash.CategoryDanger)
			return nil
		}
		csrfOK = true
		token = s.CSRFToken

		if !form.Validate() {
			return nil
		}

		err := h.auth.ChangePassword(c.Request.Context(), user, form.CurrentPassword, form.NewPassword)
		switch {
		case errors.Is(err, auth.ErrWrongCurrentPassword):
			failMsg = "Current password is incorrect"
			return nil
		case errors.Is(err, store.ErrNotFound):
			notFound = true
			return nil
		case err != nil:
			return err
		}

		flash.Push(s, "Password changed successfully", flash.CategorySuccess)
		changed = true
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	switch {
	case !csrfOK:
		c.Redirect(http.StatusFound, "/settings")
	case notFound:
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title":  "Not Found",
			"Detail": "That account no longer exists.",
		})
	case changed:
		c.Redirect(http.StatusFound, "/success")
	default:
		var msgs []session.Flash
		if failMsg != "" {
			msgs = []session.Flash{{Message: failMsg, Category: flash.CategoryDanger}}
		}
		c.HTML(http.StatusOK, "settings.html", gin.H{
			"CSRFToken": token,
			"Flashes":   msgs,
			"User":      user,
			"Form":      &ChangePasswordForm{Errors: form.Errors},
		})
	}
}

func (h *Handler) Users(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var msgs []session.Flash
	_, err := h.sessions.Update(c.Writer, c.Request, func(s *session.Session) error {
		msgs = flash.Drain(s)
		return nil
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "users.html", gin.H{
		"User":    user,
		"Flashes": msgs,
		"Users":   users,
	})
}

// serverError renders the generic failure page. Internal detail stays
// in the log.
func (h *Handler) serverError(c *gin.Context, err error) {
	h.log.Error(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":  "Something went wrong",
		"Detail": "Please try again later.",
	})
}
