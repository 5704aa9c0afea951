package config

const (
	defaultAssetsDir        = "~/.local/share/hocg/assets"
	defaultDatabase         = "hocg_cards.json"
	defaultImagesJP         = "img"
	defaultImagesEN         = "img_en"
	defaultSameRarity       = 256
	defaultDiffRarity       = 4096
	defaultProxyRarity      = "P"
	defaultReconcileWorkers = 8
	defaultDownloadWorkers  = 4
	defaultDecklogBaseURL   = "https://decklog.bushiroad.com"
	defaultDecklogReferer   = "https://decklog.bushiroad.com/"
	defaultDecklogRate      = 4
	defaultArtworkBaseURL   = "https://hololive-official-cardgame.com/wp-content/images/cardlist"
	defaultArtworkRate      = 8
	defaultTimeoutSeconds   = 30
	defaultYuyuteiMode      = "quick"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultOverridesCatalog = "~/.config/hocg/overrides.json"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			AssetsDir: defaultAssetsDir,
			Database:  defaultDatabase,
			ImagesJP:  defaultImagesJP,
			ImagesEN:  defaultImagesEN,
		},
		Matching: Matching{
			SameRarity:                defaultSameRarity,
			DiffRarity:                defaultDiffRarity,
			ProxyRarity:               defaultProxyRarity,
			TrustUnreleasedSameRarity: true,
		},
		Workers: Workers{
			Reconcile: defaultReconcileWorkers,
			Downloads: defaultDownloadWorkers,
		},
		Decklog: Decklog{
			Enabled:           true,
			BaseURL:           defaultDecklogBaseURL,
			Referer:           defaultDecklogReferer,
			RequestsPerSecond: defaultDecklogRate,
			TimeoutSeconds:    defaultTimeoutSeconds,
		},
		Yuyutei: Yuyutei{
			Mode: defaultYuyuteiMode,
		},
		Artwork: Artwork{
			BaseURL:           defaultArtworkBaseURL,
			Referer:           defaultDecklogReferer,
			RequestsPerSecond: defaultArtworkRate,
			TimeoutSeconds:    defaultTimeoutSeconds,
		},
		Overrides: Overrides{
			Path: defaultOverridesCatalog,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
