package remote

import (
	"go.uber.org/zap"

	"sublet/rentals/internal/config"
	"sublet/rentals/internal/offers"
)

// Session is the client side of one signed-in user: the API client, the
// reconciled request store on top of it and the button presenter.
type Session struct {
	Client    *Client
	Store     *offers.Store
	Presenter *offers.Presenter
}

// NewSession builds a Session from cfg for the API at baseURL.
func NewSession(cfg *config.Config, baseURL, token string, l *zap.SugaredLogger) *Session {
	client := NewClient(OptionsFromConfig(cfg, baseURL, token), l)
	store := offers.NewStore(client,
		offers.WithLogger(l),
		offers.WithRefreshConcurrency(cfg.RefreshConcurrency),
	)
	return &Session{
		Client:    client,
		Store:     store,
		Presenter: offers.NewPresenter(store, client, l),
	}
}
