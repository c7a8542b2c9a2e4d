// moontrek-server accepts Moon photograph uploads, aggregates ephemeris
// positions from an upstream data server into viewer-ready scenes, hands
// uploads to the external image-registration tool, and relays live binary
// frames over a persistent WebSocket channel.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"moontrek-server/pkg/api"
	"moontrek-server/pkg/config"
	"moontrek-server/pkg/ephemeris"
	"moontrek-server/pkg/registration"
	"moontrek-server/pkg/relay"
	"moontrek-server/pkg/scene"
	"moontrek-server/pkg/uploads"
)

// CompileVersion is stamped via -ldflags at release time.
var CompileVersion = "dev"

var (
	configPath = flag.String("config", "moontrek.yml", "Path to the YAML configuration file")
	port       = flag.Int("port", 0, "Override the configured HTTP port")
	domain     = flag.String("domain", "", "Use ports 80 and 443 with automatic HTTPS certs via Let's Encrypt")
	version    = flag.Bool("version", false, "Show the application version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("moontrek-server version %s\n", CompileVersion)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *domain != "" {
		cfg.Domain = *domain
	}

	if cfg.Domain != "" && runtime.GOOS != "windows" && os.Geteuid() != 0 {
		log.Println("⚠  Binding to :80 / :443 requires super-user rights; run with sudo or as root.")
	}

	if err := cfg.EnsureDirs(); err != nil {
		log.Fatalf("directories: %v", err)
	}

	client := ephemeris.NewClient(cfg.DataServer.Host, cfg.DataServer.Port, cfg.UpstreamTimeout())
	aggregator := scene.New(client)
	store := uploads.NewStore(cfg.Dirs.Uploads)
	runner := registration.New(
		registration.CommandLauncher(cfg.Registration.Command, cfg.Registration.Args...),
		cfg.Registration.Workers, log.Printf)
	liveRelay := relay.New(cfg.Dirs.Live, log.Printf)

	handler := api.NewHandler(cfg, aggregator, store, runner, liveRelay, log.Printf)
	mux := http.NewServeMux()
	handler.Register(mux)
	root := api.Middleware(mux)

	log.Printf("data server ➜ http://%s:%d (timeout %s)",
		cfg.DataServer.Host, cfg.DataServer.Port, cfg.UpstreamTimeout())

	if cfg.Domain != "" {
		go serveWithDomain(cfg.Domain, root)
	} else {
		go func() {
			log.Printf("HTTP server ➜ http://localhost%s", cfg.Addr())
			if err := http.ListenAndServe(cfg.Addr(), root); err != nil {
				log.Printf("HTTP server error: %v", err)
			}
		}()
	}

	// Keep the main goroutine alive.
	select {}
}

// serveWithDomain runs the dual-port production mode:
//   - :80  serves ACME HTTP-01 challenges and 301-redirects to https.
//   - :443 serves HTTPS with automatic Let's Encrypt certificates.
//
// When autocert cannot mint a certificate for a given SNI (IP access,
// odd host) the previously obtained fallback certificate is served so
// the handshake still completes.  All errors are logged only.
func serveWithDomain(domain string, handler http.Handler) {
	certMgr := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache("certs"),
		HostPolicy: func(ctx context.Context, host string) error {
			// Allow bare and www.<domain>.
			if host == domain || host == "www."+domain {
				return nil
			}
			// IP access: do not block, just never request a cert.
			if net.ParseIP(host) != nil {
				return nil
			}
			return errors.New("acme/autocert: host not configured")
		},
	}

	// :80 — challenge + redirect.
	go func() {
		mux80 := http.NewServeMux()
		mux80.Handle("/.well-known/acme-challenge/", certMgr.HTTPHandler(nil))
		mux80.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			target := "https://" + domain + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})

		log.Printf("HTTP  server (ACME+redirect) ➜ :80")
		if err := (&http.Server{
			Addr:              ":80",
			Handler:           mux80,
			ReadHeaderTimeout: 10 * time.Second,
		}).ListenAndServe(); err != nil {
			log.Printf("HTTP  server error: %v", err)
		}
	}()

	// Daily renewal check.
	go func() {
		t := time.NewTicker(24 * time.Hour)
		defer t.Stop()
		for range t.C {
			if _, err := certMgr.GetCertificate(&tls.ClientHelloInfo{ServerName: domain}); err != nil {
				log.Printf("autocert renewal check: %v", err)
			}
		}
	}()

	tlsCfg := certMgr.TLSConfig()
	tlsCfg.MinVersion = tls.VersionTLS12

	// Fallback certificate for IP access and unexpected SNI.
	var defaultCert *tls.Certificate
	go func() {
		for defaultCert == nil {
			if c, err := certMgr.GetCertificate(&tls.ClientHelloInfo{ServerName: domain}); err == nil {
				defaultCert = c
			}
			time.Sleep(time.Minute)
		}
	}()
	tlsCfg.GetCertificate = func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
		c, err := certMgr.GetCertificate(chi)
		if err == nil {
			return c, nil
		}
		if defaultCert != nil {
			return defaultCert, nil
		}
		return nil, err
	}

	log.Printf("HTTPS server for %s ➜ :443", domain)
	if err := (&http.Server{
		Addr:              ":443",
		Handler:           handler,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}).ListenAndServeTLS("", ""); err != nil {
		log.Printf("HTTPS server error: %v", err)
	}
}
