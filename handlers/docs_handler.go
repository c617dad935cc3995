package handlers

import (
	"net/http"

	"palermoJusticeAPI/internal/game"
)

type DocsHandler struct{}

func NewDocsHandler() *DocsHandler {
	return &DocsHandler{}
}

type roleDoc struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	MafiaAligned bool   `json:"mafiaAligned"`
	ActsAtNight  bool   `json:"actsAtNight"`
}

// ServeRules publishes the role catalog so clients can render the
// how-to-play screen without hardcoding it.
func (h *DocsHandler) ServeRules(w http.ResponseWriter, r *http.Request) {
	roles := make([]roleDoc, 0, len(game.AllRoles))
	for _, role := range game.AllRoles {
		roles = append(roles, roleDoc{
			Name:         string(role),
			Description:  role.Description(),
			MafiaAligned: role.MafiaAligned(),
			ActsAtNight:  role.HasNightAction(),
		})
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"minPlayers": 3,
		"roles":      roles,
	})
}
