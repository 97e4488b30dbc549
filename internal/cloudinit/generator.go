package cloudinit

import (
	"embed"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/hashicorp/go-multierror"

	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/config"
	"github.com/7timescode/rpi5-k8s-node-bootstrapper/internal/console"
)

//go:embed templates
var templates embed.FS

// numPlaceholder is what the hostname pattern must contain; it expands
// to the zero-padded host number.
const numPlaceholder = "{num}"

// HostConfig points at the rendered configuration of one host.
type HostConfig struct {
	Hostname string
	Dir      string
}

// Files lists everything that belongs on the host's boot partition.
func (h HostConfig) Files() []string {
	return []string{
		filepath.Join(h.Dir, "user-data"),
		filepath.Join(h.Dir, "network-config"),
		filepath.Join(h.Dir, "cmdline.txt"),
		filepath.Join(h.Dir, "config.txt"),
	}
}

// Options selects which hosts to generate and which interfaces to
// configure. Offset shifts the host numbering so new nodes can join an
// existing fleet without renumbering.
type Options struct {
	Hosts     int
	Offset    int
	SetupEth  bool
	SetupWifi bool

	// Force overwrites host directories that already exist.
	Force bool
}

// Generator renders per-host cloud-init configuration (user-data and
// network-config, plus the Raspberry Pi boot files) from the embedded
// templates.
type Generator struct {
	Config  config.CloudInit
	Console *console.Console
}

// hostData is the render context shared by both templates.
type hostData struct {
	Hostname               string
	RemoteAdminUsername    string
	RemoteAdminSSHKey      string
	LocalAdminUsername     string
	LocalAdminPasswordHash string

	Gateway      string
	SetupEth     bool
	EthAddress   string
	SetupWifi    bool
	WifiAddress  string
	WifiSSID     string
	WifiPassword string
}

// Generate renders configuration for every requested host. Hosts fail
// independently; the returned error aggregates per-host failures while
// the successfully rendered hosts are still returned.
func (g *Generator) Generate(opts Options) ([]HostConfig, error) {
	cfg := g.Config

	ethNet, wifiNet, err := g.validate(opts)
	if err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(cfg.LocalAdmin.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing local admin password: %w", err)
	}

	userData, err := template.ParseFS(templates, "templates/user-data.tmpl")
	if err != nil {
		return nil, fmt.Errorf("loading user-data template: %w", err)
	}
	networkConfig, err := template.ParseFS(templates, "templates/network-config.tmpl")
	if err != nil {
		return nil, fmt.Errorf("loading network-config template: %w", err)
	}

	var hosts []HostConfig
	var errs *multierror.Error

	for idx := 1 + opts.Offset; idx <= opts.Hosts+opts.Offset; idx++ {
		hostname := strings.ReplaceAll(cfg.HostnamePattern, numPlaceholder, fmt.Sprintf("%02d", idx))
		g.Console.Successf("Working on host: %s", hostname)

		data := hostData{
			Hostname:               hostname,
			RemoteAdminUsername:    cfg.RemoteAdmin.Username,
			RemoteAdminSSHKey:      cfg.RemoteAdmin.SSHKey,
			LocalAdminUsername:     cfg.LocalAdmin.Username,
			LocalAdminPasswordHash: passwordHash,
			Gateway:                cfg.Gateway,
			SetupEth:               opts.SetupEth,
			SetupWifi:              opts.SetupWifi,
			WifiSSID:               cfg.Wifi.SSID,
			WifiPassword:           cfg.Wifi.Password,
		}
		if opts.SetupEth {
			data.EthAddress, err = hostAddress(ethNet, idx-1)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", hostname, err))
				continue
			}
		}
		if opts.SetupWifi {
			data.WifiAddress, err = hostAddress(wifiNet, idx-1)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", hostname, err))
				continue
			}
		}

		host, err := g.renderHost(hostname, data, userData, networkConfig, opts.Force)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", hostname, err))
			continue
		}
		hosts = append(hosts, host)
	}

	return hosts, errs.ErrorOrNil()
}

func (g *Generator) renderHost(hostname string, data hostData, userData, networkConfig *template.Template, force bool) (HostConfig, error) {
	host := HostConfig{Hostname: hostname, Dir: filepath.Join(g.Config.OutputDir, hostname)}

	if _, err := os.Stat(host.Dir); err == nil && !force {
		return host, errors.New("configuration already exists, use --force to regenerate")
	}
	if err := os.MkdirAll(host.Dir, 0o755); err != nil {
		return host, err
	}

	if err := renderTo(filepath.Join(host.Dir, "user-data"), userData, data); err != nil {
		return host, err
	}
	if err := renderTo(filepath.Join(host.Dir, "network-config"), networkConfig, data); err != nil {
		return host, err
	}

	// The boot files are static but travel with each host so one
	// directory holds everything the boot partition needs.
	for _, name := range []string{"cmdline.txt", "config.txt"} {
		content, err := templates.ReadFile("templates/" + name)
		if err != nil {
			return host, err
		}
		if err := os.WriteFile(filepath.Join(host.Dir, name), content, 0o644); err != nil {
			return host, err
		}
	}

	return host, nil
}

func renderTo(path string, tmpl *template.Template, data hostData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// validate checks the configuration covers the requested interfaces and
// parses the networks.
func (g *Generator) validate(opts Options) (ethNet, wifiNet netip.Prefix, err error) {
	cfg := g.Config

	if !opts.SetupEth && !opts.SetupWifi {
		return ethNet, wifiNet, errors.New("need to set up either the ethernet or the wifi interface")
	}
	if opts.Hosts < 1 {
		return ethNet, wifiNet, errors.New("need at least one host")
	}
	if !strings.Contains(cfg.HostnamePattern, numPlaceholder) {
		return ethNet, wifiNet, fmt.Errorf("hostname_pattern must contain %s", numPlaceholder)
	}
	for key, value := range map[string]string{
		"gateway":               cfg.Gateway,
		"local_admin.username":  cfg.LocalAdmin.Username,
		"local_admin.password":  cfg.LocalAdmin.Password,
		"remote_admin.username": cfg.RemoteAdmin.Username,
		"remote_admin.ssh_key":  cfg.RemoteAdmin.SSHKey,
	} {
		if value == "" {
			return ethNet, wifiNet, fmt.Errorf("missing required configuration value: %s", key)
		}
	}

	if _, err := netip.ParseAddr(cfg.Gateway); err != nil {
		return ethNet, wifiNet, fmt.Errorf("parsing gateway: %w", err)
	}

	if opts.SetupEth {
		ethNet, err = netip.ParsePrefix(cfg.EthNetwork)
		if err != nil {
			return ethNet, wifiNet, fmt.Errorf("parsing eth_network: %w", err)
		}
	}
	if opts.SetupWifi {
		wifiNet, err = netip.ParsePrefix(cfg.WifiNetwork)
		if err != nil {
			return ethNet, wifiNet, fmt.Errorf("parsing wifi_network: %w", err)
		}
		if cfg.Wifi.SSID == "" || cfg.Wifi.Password == "" {
			return ethNet, wifiNet, errors.New("wifi setup needs wifi.ssid and wifi.password")
		}
	}

	return ethNet, wifiNet, nil
}
