package middleware

// Códigos ANSI para el banner de arranque
const (
	resetColor = "\033[0m"
	boldColor  = "\033[1m"
	greenColor = "\033[32m"
	cyanColor  = "\033[36m"
)
