package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gopkg.in/yaml.v3"

	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
	gormstore "github.com/tpmjs/tpmjs/pkg/server/store/gorm"
	"github.com/tpmjs/tpmjs/pkg/toolloader"
)

// collectionCmd represents the collection command
var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage tool collections",
	Long:  `Manage tool collections from manifest files.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'collection' requires a subcommand (load, watch, export)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

// collectionManifest is the YAML shape accepted by collection load.
type collectionManifest struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Public      bool     `yaml:"public"`
	MCPEnabled  bool     `yaml:"mcp_enabled"`
	Tools       []string `yaml:"tools"`
}

var collectionLoadCmd = &cobra.Command{
	Use:   "load <email> <file>",
	Short: "Load a collection manifest",
	Long: `Load a collection manifest for a user.

The manifest names a collection by slug and lists tool references in
"package/tool" or "package@version/tool" form. An existing collection
with the same slug has its metadata and tool set replaced.

Example:
  tpmjsctl collection load dev@example.com web-tools.yml`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()

		result, err := loadCollectionFile(database, args[0], args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load collection: %v\n", err)
			os.Exit(1)
		}

		printJSON(result)
	},
}

var collectionWatchCmd = &cobra.Command{
	Use:   "watch <email> <file>",
	Short: "Watch a file and reload the collection if it's modified",
	Long: `Watch a file and reload the collection when it changes.

To trigger a reload, replace the contents of the watched file with the
path to a collection manifest. The path must be visible to the process
running "tpmjsctl collection watch".

Example:
  tpmjsctl collection watch dev@example.com /run/tpmjs/collection/load`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := watchCollection(args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch collection: %v\n", err)
			os.Exit(1)
		}
	},
}

var collectionExportCmd = &cobra.Command{
	Use:   "export <email> <slug>",
	Short: "Export a collection as a manifest",
	Long: `Export a collection as a YAML manifest on stdout.

The output round-trips through "collection load".

Example:
  tpmjsctl collection export dev@example.com web-tools > web-tools.yml`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := mustConnect()

		if err := exportCollection(database, args[0], args[1]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to export collection: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionLoadCmd)
	collectionCmd.AddCommand(collectionWatchCmd)
	collectionCmd.AddCommand(collectionExportCmd)
}

func loadCollectionFile(database *gorm.DB, email, filename string) (map[string]interface{}, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest collectionManifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Slug == "" || manifest.Name == "" {
		return nil, errors.New("manifest requires slug and name")
	}

	users := gormstore.NewUsersStore(database)
	collections := gormstore.NewCollectionsStore(database)
	toolsStore := gormstore.NewToolsStore(database)

	user, err := users.FindUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("unknown user %s: %w", email, err)
	}

	// Resolve tool references before touching the collection so a bad
	// manifest leaves the existing one intact.
	toolIDs := make([]string, 0, len(manifest.Tools))
	for _, raw := range manifest.Tools {
		ref, err := toolloader.ParseRef(raw)
		if err != nil {
			return nil, fmt.Errorf("bad tool reference %q: %w", raw, err)
		}
		t, err := toolsStore.FindTool(ref.Package, ref.Tool)
		if err != nil {
			return nil, fmt.Errorf("unknown tool %q: %w", raw, err)
		}
		toolIDs = append(toolIDs, t.Tool.ToolID)
	}

	collection, err := collections.FindCollectionBySlug(user.UserID, manifest.Slug)
	created := false
	switch {
	case err == nil:
		collection.Name = manifest.Name
		collection.Description = manifest.Description
		collection.Public = manifest.Public
		collection.MCPEnabled = manifest.MCPEnabled
		collection, err = collections.UpdateCollection(*collection)
		if err != nil {
			return nil, err
		}

		existing, err := collections.ListTools(collection.CollectionID)
		if err != nil {
			return nil, err
		}
		for _, t := range existing {
			if err := collections.RemoveTool(collection.CollectionID, t.Tool.ToolID); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, store.ErrCollectionNotFound):
		created = true
		collection, err = collections.CreateCollection(model.Collection{
			UserID:      user.UserID,
			Slug:        manifest.Slug,
			Name:        manifest.Name,
			Description: manifest.Description,
			Public:      manifest.Public,
			MCPEnabled:  manifest.MCPEnabled,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	for _, toolID := range toolIDs {
		if err := collections.AddTool(collection.CollectionID, toolID, -1); err != nil {
			return nil, err
		}
	}

	fmt.Printf("Collection '%s' loaded for %s\n", manifest.Slug, email)
	return map[string]interface{}{
		"collection_id": collection.CollectionID,
		"slug":          collection.Slug,
		"created":       created,
		"tools":         len(toolIDs),
	}, nil
}

func exportCollection(database *gorm.DB, email, slug string) error {
	users := gormstore.NewUsersStore(database)
	collections := gormstore.NewCollectionsStore(database)

	user, err := users.FindUserByEmail(email)
	if err != nil {
		return fmt.Errorf("unknown user %s: %w", email, err)
	}

	collection, err := collections.FindCollectionBySlug(user.UserID, slug)
	if err != nil {
		return fmt.Errorf("unknown collection %s: %w", slug, err)
	}

	tools, err := collections.ListTools(collection.CollectionID)
	if err != nil {
		return err
	}

	manifest := collectionManifest{
		Slug:        collection.Slug,
		Name:        collection.Name,
		Description: collection.Description,
		Public:      collection.Public,
		MCPEnabled:  collection.MCPEnabled,
		Tools:       make([]string, 0, len(tools)),
	}
	for _, t := range tools {
		manifest.Tools = append(manifest.Tools, t.PackageName+"/"+t.Tool.Name)
	}

	out, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func watchCollection(email, filename string) error {
	database := mustConnect()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filename); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filename, err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("Watching %s for collection reloads...\n", filename)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			content, err := os.ReadFile(filename)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
				continue
			}

			manifestPath := strings.TrimSpace(string(content))
			if manifestPath == "" {
				continue
			}

			if _, err := loadCollectionFile(database, email, manifestPath); err != nil {
				fmt.Fprintf(os.Stderr, "Error loading collection: %v\n", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return nil
		}
	}
}
