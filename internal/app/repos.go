package app

import (
	"gorm.io/gorm"

	"github.com/traceleaf/dpp-backend/internal/logger"
	"github.com/traceleaf/dpp-backend/internal/repos"
)

type Repos struct {
	User            repos.UserRepo
	UserToken       repos.UserTokenRepo
	Product         repos.ProductRepo
	VerificationLog repos.VerificationLogRepo
	Document        repos.DocumentRepo
	Webhook         repos.WebhookRepo
	WebhookDelivery repos.WebhookDeliveryRepo
	Report          repos.ReportRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:            repos.NewUserRepo(db, log),
		UserToken:       repos.NewUserTokenRepo(db, log),
		Product:         repos.NewProductRepo(db, log),
		VerificationLog: repos.NewVerificationLogRepo(db, log),
		Document:        repos.NewDocumentRepo(db, log),
		Webhook:         repos.NewWebhookRepo(db, log),
		WebhookDelivery: repos.NewWebhookDeliveryRepo(db, log),
		Report:          repos.NewReportRepo(db, log),
	}
}
