package config

import "time"

const (
	// DefaultAPIURL is used when neither NEXT_PUBLIC_API_URL nor API_URL is set.
	DefaultAPIURL = "https://bagbot-web.onrender.com/api"

	publicAPIURLVar = "NEXT_PUBLIC_API_URL"
	apiURLVar       = "API_URL"
)

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIURL returns the Auth API base URL without a trailing slash.
func (Client) GetAPIURL() string {
	url := GetEnv(publicAPIURLVar, GetEnv(apiURLVar, DefaultAPIURL))
	for len(url) > 0 && url[len(url)-1] == '/' {
		url = url[:len(url)-1]
	}
	return url
}

func (Client) GetClientID() string {
	return GetEnv("CLIENT_ID", "bagbot-dashboard")
}

func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration("REQUEST_TIMEOUT", 15*time.Second)
}
