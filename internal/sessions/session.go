package sessions

import (
	"time"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

// Session is a signed-in account. It expires after a period of inactivity;
// every validated request pushes ExpiresAt forward.
type Session struct {
	ID        string      `bson:"_id" json:"id"`
	UserID    string      `bson:"userId" json:"userId"`
	Username  string      `bson:"username" json:"username"`
	Role      models.Role `bson:"role" json:"role"`
	ExpiresAt time.Time   `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time   `bson:"createdAt" json:"createdAt"`
}

func (s *Session) Principal() models.Principal {
	return models.Principal{ID: s.UserID, Username: s.Username, Role: s.Role}
}
