package maitre

// Version is the library version, overridable at build time with
// -ldflags "-X github.com/maitre-bot/maitre.Version=...".
var Version = "0.1.0"
