package cfg

type Cfg struct {
	// Storage configuration
	DBPath    string
	MediaDir  string
	ExportDir string

	// Application configuration
	Port          string
	BaseUrl       string
	WorkerCount   int
	StatsInterval int
	APIAccessKey  string
	ShareCommand  string
	RemindersFile string
	Reminders     bool
	Export        string

	// Location configuration
	LocationEnabled bool
	LocationURL     string
	LocationTimeout int
	Latitude        float64
	Longitude       float64

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
