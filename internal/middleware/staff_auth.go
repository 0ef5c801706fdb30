package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"raffle-5050/internal/logger"
	"raffle-5050/internal/models"
)

const TelegramInitDataHeader = "X-Telegram-Init-Data"

type TelegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// StaffAuthConfig holds the accepted staff credentials. Telegram auth is
// active only when BotToken is set.
type StaffAuthConfig struct {
	User     string
	Password string
	BotToken string
	AdminIDs []int64
}

// ParseAdminIDs reads a comma separated list of Telegram user ids.
func ParseAdminIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// StaffAuth accepts HTTP Basic staff credentials OR Telegram WebApp initData
// signed by the bot and issued to an admin id.
func StaffAuth(cfg StaffAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checkBasicAuth(r, cfg) {
				next.ServeHTTP(w, r)
				return
			}

			if initData := r.Header.Get(TelegramInitDataHeader); initData != "" && cfg.BotToken != "" {
				user, valid := validateTelegramInitData(initData, cfg.BotToken)
				if valid && isAdmin(user.ID, cfg.AdminIDs) {
					logger.Debug("telegram staff authenticated", zap.Int64("id", user.ID), zap.String("name", user.FirstName))
					next.ServeHTTP(w, r)
					return
				}
				logger.Warn("telegram staff rejected", zap.Bool("signature", valid))
			}

			w.Header().Set("WWW-Authenticate", `Basic realm="Raffle Staff"`)
			writeDenied(w, http.StatusUnauthorized, "staff authorization required")
		})
	}
}

func checkBasicAuth(r *http.Request, cfg StaffAuthConfig) bool {
	if cfg.Password == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(cfg.User)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(cfg.Password)) == 1
	return userOK && passOK
}

func validateTelegramInitData(initData, botToken string) (*TelegramUser, bool) {
	params, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := params.Get("hash")
	if hash == "" {
		return nil, false
	}

	// data-check-string: sorted key=value pairs without hash, newline joined
	var keys []string
	for k := range params {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var dataCheckParts []string
	for _, k := range keys {
		dataCheckParts = append(dataCheckParts, k+"="+params.Get(k))
	}
	dataCheckString := strings.Join(dataCheckParts, "\n")

	if !hmac.Equal([]byte(signInitData(dataCheckString, botToken)), []byte(hash)) {
		return nil, false
	}

	userJSON := params.Get("user")
	if userJSON == "" {
		return nil, false
	}

	var user TelegramUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, false
	}

	return &user, true
}

// signInitData computes HMAC-SHA256(dataCheckString, HMAC-SHA256(botToken, "WebAppData")).
func signInitData(dataCheckString, botToken string) string {
	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(botToken))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString))
	return hex.EncodeToString(h.Sum(nil))
}

func isAdmin(userID int64, adminIDs []int64) bool {
	for _, id := range adminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func writeDenied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: message})
}
