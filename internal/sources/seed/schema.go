package seed

// Entry is one bookmark in the seed file.
type Entry struct {
	Title        string `yaml:"title"`
	URL          string `yaml:"url"`
	RememberDate string `yaml:"remember_date"`
}

// File is the root of the seed YAML:
//
//	bookmarks:
//	  - title: Go
//	    url: go.dev
//	    remember_date: 2024-06-01
type File struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}
