package config

// SiteConfig holds site-specific configuration for a single hostname.
// This allows tuning scan behavior for sites the user trusts or distrusts.
type SiteConfig struct {
	// Sensitivity overrides the global sensitivity for this site.
	// If empty, the global Sensitivity is used.
	Sensitivity string `yaml:"sensitivity,omitempty"`

	// Skip disables scanning for this site entirely.
	// Intended for internal tools and intranet hosts that trip the
	// classifier on login forms.
	Skip bool `yaml:"skip,omitempty"`
}

// File represents the structure of the .phishsentry configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames without scheme (e.g., "intranet.corp.example").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific hostname.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(hostname string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[hostname]; ok {
		if siteConfig.Sensitivity != "" {
			result.Sensitivity = siteConfig.Sensitivity
		}
		if siteConfig.Skip {
			result.Skip = true
		}
	}

	return result
}
