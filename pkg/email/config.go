package email

const (
	BackendDev      = "dev"
	BackendPostmark = "postmark"
)

// Config holds email service configuration. Postmark tokens are only needed
// when Backend is "postmark".
type Config struct {
	Backend              string `env:"EMAIL_BACKEND" envDefault:"dev"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@accountkit.local"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@accountkit.local"`
}
