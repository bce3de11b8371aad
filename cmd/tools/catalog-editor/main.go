// cmd/tools/catalog-editor/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"mergington-activities/internal/activities"
	apphttp "mergington-activities/internal/common/http"
	"mergington-activities/pkg/catalog"
)

const defaultCatalogPath = "configs/activities.json"

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	snapshotCmd := flag.NewFlagSet("snapshot", flag.ExitOnError)

	// Init command flags
	initPath := initCmd.String("path", defaultCatalogPath, "Path to catalog file")
	force := initCmd.Bool("force", false, "Overwrite an existing catalog")

	// Add command flags
	addPath := addCmd.String("path", defaultCatalogPath, "Path to catalog file")
	name := addCmd.String("name", "", "Activity name (e.g., Chess Club)")
	description := addCmd.String("description", "", "Description")
	schedule := addCmd.String("schedule", "", "Schedule (e.g., Fridays, 3:30 PM - 5:00 PM)")
	maxParticipants := addCmd.Int("max", 0, "Maximum participants")
	participants := addCmd.String("participants", "", "Comma-separated participant emails")

	// Update command flags
	updatePath := updateCmd.String("path", defaultCatalogPath, "Path to catalog file")
	nameUpdate := updateCmd.String("name", "", "Activity name to update")
	field := updateCmd.String("field", "", "Field to update (description, schedule, max, participants)")
	value := updateCmd.String("value", "", "New value for the field")

	// Validate command flags
	validatePath := validateCmd.String("path", defaultCatalogPath, "Path to catalog file")

	// Snapshot command flags
	snapshotPath := snapshotCmd.String("path", defaultCatalogPath, "Path to write the catalog file")
	serverURL := snapshotCmd.String("url", "http://localhost:8000", "Base URL of a running activities server")
	timeout := snapshotCmd.Duration("timeout", 10*time.Second, "Request timeout")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		if err := initCatalog(*initPath, *force); err != nil {
			fmt.Printf("Error creating catalog: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default catalog to %s\n", *initPath)

	case "add":
		addCmd.Parse(os.Args[2:])
		if *name == "" || *description == "" || *schedule == "" || *maxParticipants <= 0 {
			fmt.Println("Error: name, description, schedule, and a positive max are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		activity := catalog.Activity{
			Name:            *name,
			Description:     *description,
			Schedule:        *schedule,
			MaxParticipants: *maxParticipants,
			Participants:    splitList(*participants),
		}
		if err := addActivity(*addPath, activity); err != nil {
			fmt.Printf("Error adding activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added activity: %s\n", *name)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *nameUpdate == "" || *field == "" {
			fmt.Println("Error: name and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateActivity(*updatePath, *nameUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating activity: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated activity %s, field %s to %s\n", *nameUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		count, err := validateCatalog(*validatePath)
		if err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d activities.\n", count)

	case "snapshot":
		snapshotCmd.Parse(os.Args[2:])
		client := apphttp.NewClient(*serverURL, *timeout)
		count, err := snapshotCatalog(context.Background(), client, *snapshotPath)
		if err != nil {
			fmt.Printf("Error taking snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved %d activities from %s to %s\n", count, *serverURL, *snapshotPath)

	case "help":
		fallthrough
	default:
		help()
	}
}

// initCatalog writes the built-in seed as a catalog file.
func initCatalog(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	return catalog.Save(catalog.FromActivities(activities.DefaultSeed()), path)
}

func addActivity(path string, activity catalog.Activity) error {
	cat, err := catalog.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = catalog.New()
	}

	if cat.Find(activity.Name) >= 0 {
		return fmt.Errorf("activity %s already exists", activity.Name)
	}
	if activity.Participants == nil {
		activity.Participants = []string{}
	}

	cat.Activities = append(cat.Activities, activity)
	if err := catalog.Validate(cat); err != nil {
		return err
	}
	cat.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return catalog.Save(cat, path)
}

func updateActivity(path, name, field, value string) error {
	cat, err := catalog.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	i := cat.Find(name)
	if i < 0 {
		return fmt.Errorf("activity %s not found", name)
	}

	switch field {
	case "description":
		cat.Activities[i].Description = value
	case "schedule":
		cat.Activities[i].Schedule = value
	case "max":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid max value: %w", err)
		}
		cat.Activities[i].MaxParticipants = n
	case "participants":
		cat.Activities[i].Participants = splitList(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	if err := catalog.Validate(cat); err != nil {
		return err
	}
	cat.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return catalog.Save(cat, path)
}

// validateCatalog runs the same checks the server applies at startup.
func validateCatalog(path string) (int, error) {
	cat, err := catalog.LoadValidated(path)
	if err != nil {
		return 0, err
	}
	if _, err := activities.New(cat.ToActivities(), activities.Options{}); err != nil {
		return 0, err
	}
	return len(cat.Activities), nil
}

// rosterSource is satisfied by the activities HTTP client.
type rosterSource interface {
	Activities(ctx context.Context) (map[string]apphttp.Activity, error)
}

// snapshotCatalog saves the live roster of a running server as a catalog,
// so a restart can be seeded with the current sign-ups.
func snapshotCatalog(ctx context.Context, src rosterSource, path string) (int, error) {
	live, err := src.Activities(ctx)
	if err != nil {
		return 0, err
	}

	seed := make([]activities.Activity, 0, len(live))
	for name, a := range live {
		seed = append(seed, activities.Activity{
			Name:            name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    a.Participants,
		})
	}
	sort.Slice(seed, func(i, j int) bool { return seed[i].Name < seed[j].Name })

	cat := catalog.FromActivities(seed)
	if err := catalog.Validate(cat); err != nil {
		return 0, err
	}
	if err := catalog.Save(cat, path); err != nil {
		return 0, err
	}
	return len(cat.Activities), nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func help() {
	fmt.Print(`
Usage: catalog-editor <command> [flags]

Commands:
  init     Write the built-in activities to a catalog file
  add      Add a new activity to the catalog
  update   Update an existing activity's field
  validate Validate the catalog file
  snapshot Save the live roster of a running server as a catalog
  help     Show this help message

Examples:
  catalog-editor init -path configs/activities.json
  catalog-editor add -name "Robotics Club" -description "Build and program robots" -schedule "Wednesdays, 3:30 PM - 5:00 PM" -max 16
  catalog-editor update -name "Chess Club" -field max -value 14
  catalog-editor validate -path configs/activities.json
  catalog-editor snapshot -url http://localhost:8000 -path configs/activities.json

Use 'catalog-editor <command> -h' for more information about a command.
`)
}
