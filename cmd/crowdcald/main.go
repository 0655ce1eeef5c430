package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"crowdcal-backend/lib/configutil"
	"crowdcal-backend/lib/scrapers/touringplans"
	"crowdcal-backend/lib/serviceutil"
	"crowdcal-backend/lib/telemetry"
	"crowdcal-backend/services/forecast"

	"github.com/go-co-op/gocron"
	"github.com/gorilla/mux"
)

type Config struct {
	Login       string `json:"login"`
	Password    string `json:"password"`
	BaseUrl     string `json:"base_url"`
	BlockoutUrl string `json:"blockout_url"`
	StateDir    string `json:"state_dir"`
	Port        int    `json:"port"`

	Resorts               []string `json:"resorts"`
	PassType              string   `json:"pass_type"`
	UpdateIntervalMinutes int      `json:"update_interval_minutes"`
	MinimumEntries        int      `json:"minimum_entries"`

	Debug bool `json:"debug"`
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}
	telemetry.InitSlog(config.Debug)

	if config.StateDir == "" {
		config.StateDir = "."
	}
	if config.Port == 0 {
		config.Port = 9300
	}
	if len(config.Resorts) == 0 {
		config.Resorts = []string{touringplans.PrimaryResort}
	}
	if config.PassType == "" {
		config.PassType = "platinum"
	}
	if config.UpdateIntervalMinutes <= 0 {
		config.UpdateIntervalMinutes = 60
	}
	if config.MinimumEntries <= 0 {
		config.MinimumEntries = 7
	}

	client, err := touringplans.NewClient(touringplans.ClientOptions{
		BaseUrl:     config.BaseUrl,
		BlockoutUrl: config.BlockoutUrl,
		Credentials: touringplans.Credentials{
			Login:    config.Login,
			Password: config.Password,
		},
		CookieFile: filepath.Join(config.StateDir, "cookies.json"),
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize touringplans client", err)
	}

	store, err := forecast.OpenStore(filepath.Join(config.StateDir, "cache.json"))
	if err != nil {
		serviceutil.Fatal("failed to open forecast cache", err)
	}
	blockouts, err := forecast.OpenBlockoutStore(filepath.Join(config.StateDir, "blockout.json"))
	if err != nil {
		serviceutil.Fatal("failed to open blockout index", err)
	}

	svc := forecast.NewService(forecast.ServiceOptions{
		Client:    client,
		Store:     store,
		Blockouts: blockouts,
	})

	router := mux.NewRouter()
	forecast.RegisterRoutes(router, svc)

	// the periodic trigger keeps the cache warm and retries anything a
	// failed attempt left behind; it runs the same pipeline the HTTP
	// boundary uses
	request := forecast.FetchForecastRequest{
		Resorts:        config.Resorts,
		MaximumEntries: config.MinimumEntries,
		PassType:       config.PassType,
	}
	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(config.UpdateIntervalMinutes).Minutes().Do(func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), time.Minute*2)
		defer cancel()

		_, err := svc.FetchForecast(jobCtx, request)
		if err != nil {
			slog.Error("periodic forecast refresh failed", "err", err)
		}
	})
	if err != nil {
		serviceutil.Fatal("failed to schedule periodic refresh", err)
	}
	scheduler.StartAsync()

	go serviceutil.StartHttpServer(config.Port, router)

	<-ctx.Done()
	scheduler.Stop()
}
