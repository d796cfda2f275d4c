package view

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
)

// FlashCookie cookie с уведомлениями для следующей страницы после POST
const FlashCookie = "pc_flash"

// SetFlash сохраняет уведомления до следующего GET
func SetFlash(c *gin.Context, notes []domain.Notification) {
	if len(notes) == 0 {
		return
	}
	data, err := json.Marshal(notes)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, base64.RawURLEncoding.EncodeToString(data), 60, "/", "", false, true)
}

// PopFlash читает и удаляет уведомления. Поврежденная cookie игнорируется.
func PopFlash(c *gin.Context) []domain.Notification {
	raw, err := c.Cookie(FlashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, "", -1, "/", "", false, true)

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var notes []domain.Notification
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil
	}
	return notes
}
