package cookies

// Names holds the cookie names derived from the configured prefix.
type Names struct {
	TempLogin   string
	Refresh     string
	AccessToken string
	IDToken     string
	CSRF        string
}

func NewNames(prefix string) Names {
	return Names{
		TempLogin:   prefix + "-login",
		Refresh:     prefix + "-auth",
		AccessToken: prefix + "-at",
		IDToken:     prefix + "-id",
		CSRF:        prefix + "-csrf",
	}
}

// SessionCookies are the cookies removed at logout
func (n Names) SessionCookies() []string {
	return []string{n.Refresh, n.AccessToken, n.IDToken, n.CSRF}
}
