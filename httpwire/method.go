package httpwire

// methods lists the nine recognized request methods, longest first so a
// prefix scan never mismatches GET against e.g. a hypothetical "GETX".
var methods = []string{
	"CONNECT", "OPTIONS", "DELETE", "PATCH",
	"TRACE", "HEAD", "POST", "PUT", "GET",
}

// matchMethod returns the longest method token that prefixes line, or ""
// if none does.
func matchMethod(line string) string {
	for _, m := range methods {
		if len(line) >= len(m) && line[:len(m)] == m {
			return m
		}
	}
	return ""
}
