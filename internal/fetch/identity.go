package fetch

const (
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	defaultAcceptLanguage = "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7"
)

// Identity is one browser-like header set sent with a request.
type Identity struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// Headers renders the identity as request headers, skipping empty values.
func (id Identity) Headers() map[string]string {
	headers := make(map[string]string, 3)
	if id.UserAgent != "" {
		headers["User-Agent"] = id.UserAgent
	}
	accept := id.Accept
	if accept == "" {
		accept = defaultAccept
	}
	headers["Accept"] = accept
	lang := id.AcceptLanguage
	if lang == "" {
		lang = defaultAcceptLanguage
	}
	headers["Accept-Language"] = lang
	return headers
}

// IdentitiesFromUserAgents builds a pool from plain user agent strings.
func IdentitiesFromUserAgents(agents []string) []Identity {
	out := make([]Identity, 0, len(agents))
	for _, ua := range agents {
		if ua == "" {
			continue
		}
		out = append(out, Identity{UserAgent: ua})
	}
	return out
}

// DefaultIdentities returns the built-in pool of desktop and mobile browsers.
func DefaultIdentities() []Identity {
	return IdentitiesFromUserAgents([]string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
	})
}
