// Package fixture replays a recorded detection run. It stands in for the
// scanning engine: counts and analysis results come from a catalog instead
// of the local filesystem.
package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Item is one detected browser runtime as emitted on the discovery channel.
type Item struct {
	DisplayName string `yaml:"display_name" json:"displayName"`
	BrowserType string `yaml:"browser_type" json:"browserType"`
	Size        uint64 `yaml:"size" json:"size"`
	Icon        string `yaml:"icon" json:"icon"`
}

// Catalog is the replayed machine state.
type Catalog struct {
	Installed int    `yaml:"installed"`
	Items     []Item `yaml:"items"`
}

// TotalSize sums the sizes of all items.
func (c *Catalog) TotalSize() uint64 {
	var total uint64
	for _, it := range c.Items {
		total += it.Size
	}
	return total
}

// Validate rejects catalogs the backend contract cannot express.
func (c *Catalog) Validate() error {
	if c.Installed < 0 {
		return fmt.Errorf("installed: negative count %d", c.Installed)
	}
	for i, it := range c.Items {
		if it.DisplayName == "" {
			return fmt.Errorf("items[%d]: display_name is required", i)
		}
	}
	return nil
}

// LoadCatalog reads a YAML catalog from path.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

const iconStub = "data:image/png;base64,iVBORw0KGgo="

// DefaultCatalog returns the built-in sample machine.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Installed: 142,
		Items: []Item{
			{DisplayName: "Visual Studio Code", BrowserType: "Electron", Size: 389_021_184, Icon: iconStub},
			{DisplayName: "Steam", BrowserType: "libcef", Size: 1_288_490_188, Icon: iconStub},
			{DisplayName: "Spotify", BrowserType: "libcef", Size: 412_316_860, Icon: iconStub},
			{DisplayName: "Discord", BrowserType: "Electron", Size: 298_844_160, Icon: iconStub},
			{DisplayName: "微信", BrowserType: "libcef", Size: 655_360_000, Icon: iconStub},
			{DisplayName: "Battle.net", BrowserType: "libcef", Size: 734_003_200},
			{DisplayName: "Obsidian", BrowserType: "Electron", Size: 312_475_648, Icon: iconStub},
			{DisplayName: "钉钉", BrowserType: "NWJS", Size: 503_316_480, Icon: iconStub},
			{DisplayName: "KeePass Plugin Host", BrowserType: "CefSharp", Size: 94_371_840},
			{DisplayName: "QQ游戏", BrowserType: "MiniBlink", Size: 41_943_040, Icon: iconStub},
			{DisplayName: "Microsoft Edge", BrowserType: "Edge", Size: 721_420_288, Icon: iconStub},
			{DisplayName: "Mozilla Firefox", BrowserType: "Firefox", Size: 256_901_120, Icon: iconStub},
			{DisplayName: "Legacy Updater", BrowserType: "未知", Size: 1_049_076},
		},
	}
}
