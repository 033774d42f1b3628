package domain

const DefaultGrind = "Whole Bean"

var GrindOptions = []string{
	"Whole Bean",
	"Aeropress",
	"Espresso",
	"Chemex",
	"Cold Brew",
	"Pour Over",
	"French Press",
	"Moka Pot",
	"Auto Drip",
}

func IsValidGrind(option string) bool {
	for _, g := range GrindOptions {
		if g == option {
			return true
		}
	}
	return false
}

// GrindOrDefault substitutes DefaultGrind for an empty option.
func GrindOrDefault(option string) string {
	if option == "" {
		return DefaultGrind
	}
	return option
}
