package web

import (
	"encoding/gob"
	"encoding/hex"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/bigredeye/schoolbook/internal/models"
	"github.com/bigredeye/schoolbook/internal/selection"
)

const (
	sessionName = "schoolbook"
	selectedKey = "selected"
)

func init() {
	gob.Register(models.Student{})
}

// sessionHolder keeps the selected student in the cookie session of the browser.
type sessionHolder struct {
	session sessions.Session
}

var _ selection.Holder = sessionHolder{}

func holder(c *gin.Context) sessionHolder {
	return sessionHolder{sessions.Default(c)}
}

func (h sessionHolder) Get() (*models.Student, bool) {
	student, ok := h.session.Get(selectedKey).(models.Student)
	if !ok {
		return nil, false
	}
	return &student, true
}

func (h sessionHolder) Set(student models.Student) error {
	h.session.Set(selectedKey, student)
	return errors.Wrap(h.session.Save(), "Failed to save session")
}

func (h sessionHolder) Clear() error {
	h.session.Delete(selectedKey)
	return errors.Wrap(h.session.Save(), "Failed to save session")
}

func cookieKey(hexKey string) ([]byte, error) {
	if hexKey == "" {
		key := uuid.New()
		return key[:], nil
	}
	return hex.DecodeString(hexKey)
}

func setupSessions(s *server, r *gin.Engine) error {
	cookies := s.config.Server.Cookies
	if cookies.AuthenticationKey == "" || cookies.EncryptionKey == "" {
		s.logger.Warn("Cookie keys are not configured, sessions will not survive a restart")
	}

	authKey, err := cookieKey(cookies.AuthenticationKey)
	if err != nil {
		return errors.Wrap(err, "Failed to decode hex authenticationKey")
	}
	encryptKey, err := cookieKey(cookies.EncryptionKey)
	if err != nil {
		return errors.Wrap(err, "Failed to decode hex encryptionKey")
	}

	store := cookie.NewStore(authKey, encryptKey)
	store.Options(sessions.Options{
		Path:     "/",
		Secure:   cookies.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	return nil
}
