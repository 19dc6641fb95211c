package siteconfig

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/hybrasil/storefront/internal/infrastructure/store"
)

const (
	hybrasilLogo  = "https://storage.googleapis.com/pigeon-strategy-350508.appspot.com/e37d559e-e314-46c5-a13f-91d6c382173e.png"
	paymentQRCode = "https://storage.googleapis.com/pigeon-strategy-350508.appspot.com/7968565b-f06a-4952-b91a-7b83047240a1.png"
)

// Config is the sitewide singleton: branding, social links, payment QR,
// footer text and the countdown gate. Admin updates it in place; every page
// reads it.
type Config struct {
	ServerName       string    `json:"serverName"`
	ServerIP         string    `json:"serverIP"`
	DiscordLink      string    `json:"discordLink"`
	TwitterLink      string    `json:"twitterLink"`
	InstagramLink    string    `json:"instagramLink"`
	Announcement     string    `json:"announcement"`
	HeroImage        string    `json:"heroImage"`
	LogoURL          string    `json:"logoUrl"`
	ServerIconURL    string    `json:"serverIconUrl"`
	QRCodeURL        string    `json:"qrCodeUrl"`
	AdminEmail       string    `json:"adminEmail"`
	FooterAbout      string    `json:"footerAbout"`
	FooterCopyright  string    `json:"footerCopyright"`
	CountdownActive  bool      `json:"countdownActive"`
	CountdownDate    time.Time `json:"countdownDate"`
	CountdownMessage string    `json:"countdownMessage"`
}

// Default is the configuration used when the store has nothing persisted.
func Default() Config {
	return Config{
		ServerName:       "Hybrasil Místico",
		ServerIP:         "jogar.hybrasil.com",
		DiscordLink:      "https://discord.gg/hybrasil",
		TwitterLink:      "https://twitter.com/hybrasil",
		InstagramLink:    "https://instagram.com/hybrasil",
		Announcement:     "✨ ECLIPSE DE INVERNO: Ranks com 30% de desconto!",
		HeroImage:        "https://images.unsplash.com/photo-1464802686167-b939a6910659?auto=format&fit=crop&q=80&w=2070",
		LogoURL:          hybrasilLogo,
		ServerIconURL:    hybrasilLogo,
		QRCodeURL:        paymentQRCode,
		AdminEmail:       "admin@hybrasil.com",
		FooterAbout:      "O Hybrasil não é afiliado à Hypixel Studios ou à Mojang AB. Hytale é uma marca registrada da Hypixel Studios.",
		FooterCopyright:  "TODOS OS DIREITOS RESERVADOS © 2024 HYBRASIL NETWORK",
		CountdownActive:  false,
		CountdownDate:    time.Now().Add(7 * 24 * time.Hour),
		CountdownMessage: "O Portal de Hybrasil se abrirá em breve. Prepare sua alma.",
	}
}

// Service owns the singleton config record.
type Service struct {
	mu  sync.RWMutex
	st  store.Store
	cfg Config
}

func NewService(ctx context.Context, st store.Store) (*Service, error) {
	s := &Service{st: st, cfg: Default()}
	if _, err := st.Load(ctx, store.KeyConfig, &s.cfg); err != nil {
		return nil, err
	}

	st.Subscribe(store.KeyConfig, func(_ string, raw []byte) {
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			log.Printf("[Config] Ignoring bad external config value: %v", err)
			return
		}
		s.mu.Lock()
		s.cfg = cfg
		s.mu.Unlock()
	})

	return s, nil
}

func (s *Service) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update replaces the record in place and persists it.
func (s *Service) Update(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return s.st.Save(ctx, store.KeyConfig, s.cfg)
}

// CountdownForbids reports whether the countdown gate overrides the whole
// application for the given viewer. Admin sessions always pass.
func (s *Service) CountdownForbids(isAdmin bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.CountdownActive && !isAdmin
}
