package utils

import (
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"
)

type HTTPClientConfig struct {
	Timeout        time.Duration
	KATimeout      time.Duration
	ProxyURL       string
	ProxyUsername  string
	ProxyPassword  string
	UserAgent      string
	Headers        map[string]string
	HighThreadMode bool // advanced socket options for high concurrency
}

type DlHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewDlHTTPClient(cfg HTTPClientConfig) *DlHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		IdleConnTimeout:       cfg.KATimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		DisableCompression:    true,
		MaxConnsPerHost:       0,
	}
	if cfg.HighThreadMode {
		transport.DialContext = (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
			Control: func(network, address string, c syscall.RawConn) error {
				return c.Control(func(fd uintptr) {
					setSocketOptions(fd)
				})
			},
		}).DialContext
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	// No client-wide timeout: chunk bodies may stream for longer than cfg.Timeout.
	return &DlHTTPClient{
		client: &http.Client{
			Transport: transport,
		},
		config: cfg,
	}
}

func (d *DlHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", ToolUserAgent())
	}
	for k, v := range d.config.Headers {
		req.Header.Set(k, v)
	}
	return d.client.Do(req)
}

// Timeout is the per-request deadline applied to metadata requests.
func (d *DlHTTPClient) Timeout() time.Duration {
	return d.config.Timeout
}

// SplitProxyAuth pulls user info out of a proxy URL so it can travel in
// ProxyUsername/ProxyPassword instead.
func SplitProxyAuth(cfg *HTTPClientConfig) {
	parsedProxy, err := url.Parse(cfg.ProxyURL)
	if err != nil || parsedProxy.User == nil || cfg.ProxyUsername != "" {
		return
	}
	cfg.ProxyUsername = parsedProxy.User.Username()
	if password, set := parsedProxy.User.Password(); set {
		cfg.ProxyPassword = password
	}
	parsedProxy.User = nil
	cfg.ProxyURL = parsedProxy.String()
}
