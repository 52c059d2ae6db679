package cfg

type Cfg struct {
	// Bluesky account configuration
	Handle      string
	AppPassword string
	PDSHost     string

	// Application configuration
	ConfigFile        string
	Store             string
	ArticlesPath      string
	PostsPath         string
	DBPath            string
	Port              string
	SchedulerInterval int
	DryRun            bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
