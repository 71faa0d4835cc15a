// Command validate provides a small CLI that validates game configuration
// preset JSON files in a configs directory. It checks:
//   - JSON structure and the required name field
//   - Player capacity and round settings (positive, capacity within palette)
//   - Palette entries are well-formed, distinct hex colors
//   - Required message keys
//
// The relay hub itself treats presets as opaque blobs; this command is the
// place where their shape is actually linted before game night.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Config mirrors the JSON schema for a game configuration preset.
type Config struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	MaxPlayers   int               `json:"maxPlayers"`
	Rounds       int               `json:"rounds"`
	RoundSeconds int               `json:"roundSeconds"`
	Palette      []string          `json:"palette"`
	Messages     map[string]string `json:"messages"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// validateConfig loads and validates a single preset JSON file. It performs
// structural checks, capacity/round validation, palette checks, and message
// presence.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	// The hub's preset manager only requires a name; everything below is
	// client contract.
	if config.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Missing required field: name")
	}

	if config.MaxPlayers <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("maxPlayers must be positive, got %d", config.MaxPlayers))
	}

	if config.Rounds <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("rounds must be positive, got %d", config.Rounds))
	}

	if config.RoundSeconds <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("roundSeconds must be positive, got %d", config.RoundSeconds))
	}

	paletteResult := validatePalette(config.Palette, config.MaxPlayers)
	if !paletteResult.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, paletteResult.Errors...)

	// Validate messages
	requiredMessages := []string{
		"lobby",
		"start",
		"round_end",
		"game_over",
		"kicked",
	}
	for _, msg := range requiredMessages {
		if _, exists := config.Messages[msg]; !exists {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Missing required message: %s", msg))
		}
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Players: up to %d", config.MaxPlayers))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Rounds: %d x %ds", config.Rounds, config.RoundSeconds))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Palette: %d colors", len(config.Palette)))
	}

	return result
}

// validatePalette ensures every palette entry is a well-formed hex color,
// that no color repeats, and that there are enough colors for the player
// capacity (every player gets a distinct color).
func validatePalette(palette []string, maxPlayers int) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if len(palette) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Palette is empty")
		return result
	}

	seen := make(map[string]int)
	for i, color := range palette {
		if !hexColor.MatchString(color) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid color %q at palette index %d", color, i))
			continue
		}

		normalized := strings.ToLower(color)
		if prev, dup := seen[normalized]; dup {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Duplicate color %q at palette indexes %d and %d", color, prev, i))
			continue
		}
		seen[normalized] = i
	}

	if maxPlayers > 0 && len(palette) < maxPlayers {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Palette too small: %d colors for %d players", len(palette), maxPlayers))
	}

	return result
}

// main scans the configs directory (first argument, default "configs") for
// *.json files and validates each one, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
