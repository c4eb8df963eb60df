package httpapi

import "github.com/gin-gonic/gin"

func (a *API) getSettings(c *gin.Context) {
	v, err := a.settings.View(c.Request.Context())
	if err != nil {
		a.fail(c, "get settings", err)
		return
	}
	respondOK(c, gin.H{"settings": v})
}

func (a *API) updateSettings(c *gin.Context) {
	var values map[string]string
	if !bindJSON(c, &values) {
		return
	}
	if err := a.settings.Update(c.Request.Context(), values); err != nil {
		a.fail(c, "update settings", err)
		return
	}
	respondOK(c, gin.H{"success": true})
}
