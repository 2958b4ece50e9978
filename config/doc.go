// Package config loads CSM client settings from the environment, .env
// files and YAML files.
//
// The settings are API_KEY, API_SECRET and URL for the credentials and
// LOG_PATH and LOG_LEVEL for the logger. Missing credentials are reported
// all at once:
//
//	cfg, err := config.Load()
//	if errors.Is(err, config.ErrMissing) {
//	    // config: missing required environment variables: API_KEY, URL
//	}
//
// There is no package-level state; callers pass the returned Credentials to
// csm.New explicitly.
package config
