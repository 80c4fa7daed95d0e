package buildinfo

const Graffiti = "       _             _ \n__   _| |_ _ __ ___ | |\n\\ \\ / / __| '_ ` _ \\| |\n \\ V /| |_| | | | | | |\n  \\_/  \\__|_| |_| |_|_|\n\n"

// Set with -ldflags "-X github.com/go-sod/vtml/internal/buildinfo.BuildTag=..."
var (
	BuildTag string = "v0.0.0"
	Name     string = "VTML"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

// UserAgent is sent by outbound clients (webhook alerts, the vtml CLI).
func (b buildinfo) UserAgent() string {
	return b.Name() + "/" + b.Tag()
}

var Info buildinfo
