package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	usercontext "github.com/serg2014/go-chatshop/internal/app/context"
	"github.com/serg2014/go-chatshop/internal/app/models"
)

var secretForPassword = []byte("somesecret")
var secretForCookie = []byte("newsomesecret")
var CookieAuthSep = "."
var CookieAuthName = "user_id"
var ErrCookieUserID = fmt.Errorf("no valid cookie %s", CookieAuthName)

func sign(value, key []byte) string {
	h := hmac.New(sha256.New, key)
	h.Write(value)
	return hex.EncodeToString(h.Sum(nil))
}

func SignPassword(password string) string {
	return sign([]byte(password), secretForPassword)
}

func CreateAuthCookie(userID models.UserID) *http.Cookie {
	signature := sign(userID[:], secretForCookie)
	cookie_val := fmt.Sprintf("%s%s%s", userID.String(), CookieAuthSep, signature)

	cookie := &http.Cookie{
		Name:     CookieAuthName,
		Value:    cookie_val,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	return cookie
}

func checkToken(token string) (*models.UserID, error) {
	items := strings.Split(token, CookieAuthSep)
	if len(items) != 2 {
		return nil, errors.New("bad token")
	}
	userID, err := uuid.Parse(items[0])
	if err != nil {
		return nil, fmt.Errorf("bad userid from cookie: %w", err)
	}
	if sign(userID[:], secretForCookie) != items[1] {
		return nil, errors.New("bad signature")
	}
	return &userID, nil
}

func GetUserIDFromCookie(r *http.Request) (*models.UserID, error) {
	cookie, err := r.Cookie(CookieAuthName)
	if err != nil {
		return nil, ErrCookieUserID
	}
	userID, err := checkToken(cookie.Value)
	if err != nil {
		return nil, err
	}
	return userID, nil
}

// WithUserMiddleware кладет пользователя в контекст, если кука валидна.
// Отказ отдают хендлеры: не у всех ручек нужна авторизация.
func WithUserMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromCookie(r)
		if err == nil {
			ctx := usercontext.WithUser(r.Context(), userID)
			r = r.WithContext(ctx)
		}
		h.ServeHTTP(w, r)
	})
}

// OperatorMiddleware операторские ручки закрыты общим ключом из конфига
func OperatorMiddleware(key string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Operator-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}
