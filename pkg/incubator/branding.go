package incubator

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

// BrandingStrings are the product names shown by calamares
type BrandingStrings struct {
	ProductName         string `yaml:"productName"`
	ShortProductName    string `yaml:"shortProductName"`
	Version             string `yaml:"version"`
	ShortVersion        string `yaml:"shortVersion"`
	VersionedName       string `yaml:"versionedName"`
	ShortVersionedName  string `yaml:"shortVersionedName"`
	BootloaderEntryName string `yaml:"bootloaderEntryName"`
	ProductURL          string `yaml:"productUrl"`
	SupportURL          string `yaml:"supportUrl"`
	KnownIssuesURL      string `yaml:"knownIssuesUrl"`
	ReleaseNotesURL     string `yaml:"releaseNotesUrl"`
}

// BrandingImages are relative to the branding dir
type BrandingImages struct {
	ProductLogo    string `yaml:"productLogo"`
	ProductIcon    string `yaml:"productIcon"`
	ProductWelcome string `yaml:"productWelcome"`
}

// BrandingStyle are the sidebar colors
type BrandingStyle struct {
	SidebarBackground string `yaml:"sidebarBackground"`
	SidebarText       string `yaml:"sidebarText"`
	SidebarTextSelect string `yaml:"sidebarTextSelect"`
}

// Branding is the content of branding.desc
type Branding struct {
	ComponentName         string          `yaml:"componentName"`
	WelcomeStyleCalamares bool            `yaml:"welcomeStyleCalamares"`
	WelcomeExpandingLogo  bool            `yaml:"welcomeExpandingLogo"`
	Strings               BrandingStrings `yaml:"strings"`
	Images                BrandingImages  `yaml:"images"`
	Slideshow             string          `yaml:"slideshow"`
	SlideshowAPI          int             `yaml:"slideshowAPI"`
	Style                 BrandingStyle   `yaml:"style"`
}

// NewBranding returns the branding of the remix
func (c *Incubator) NewBranding(now time.Time) Branding {
	brand := c.Branding()
	stamp := now.Format("2006-01-02_1504")
	version := c.Remix.VersionName
	if version == "" {
		version = c.Distro.ReleaseID
	}
	return Branding{
		ComponentName:         brand,
		WelcomeStyleCalamares: true,
		WelcomeExpandingLogo:  true,
		Strings: BrandingStrings{
			ProductName:         c.Remix.Fullname,
			ShortProductName:    c.Remix.Name,
			Version:             fmt.Sprintf("%s (%s)", version, stamp),
			ShortVersion:        version,
			VersionedName:       fmt.Sprintf("%s %s", c.Remix.Fullname, version),
			ShortVersionedName:  fmt.Sprintf("%s %s", c.Remix.Name, version),
			BootloaderEntryName: brand,
			ProductURL:          c.Distro.HomeURL,
			SupportURL:          c.Distro.SupportURL,
			KnownIssuesURL:      c.Distro.BugReportURL,
			ReleaseNotesURL:     "https://penguins-eggs.net/",
		},
		Images: BrandingImages{
			ProductLogo:    "logo.png",
			ProductIcon:    "logo.png",
			ProductWelcome: "welcome.png",
		},
		Slideshow:    "show.qml",
		SlideshowAPI: 1,
		Style: BrandingStyle{
			SidebarBackground: "#2c3133",
			SidebarText:       "#FFFFFF",
			SidebarTextSelect: "#4d7079",
		},
	}
}

func (c *Incubator) writeBranding() error {
	data, err := yaml.Marshal(c.NewBranding(time.Now()))
	if err != nil {
		return err
	}
	path := c.Installer.Configuration + "branding/" + c.Branding() + "/branding.desc"
	return c.write(path, append([]byte("---\n"), data...), 0o644)
}
