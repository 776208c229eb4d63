package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/gitfleet/internal/repos/filesystem"
	"github.com/temirov/gitfleet/internal/repos/shared"
)

const (
	yamlExtensionConstant                 = ".yaml"
	ymlExtensionConstant                  = ".yml"
	jsonIndentConstant                    = "  "
	duplicateNameSeparatorConstant        = "-"
	inventoryFilePermissionsConstant      = 0o644
	inventoryDirectoryPermissionsConstant = 0o755

	inventoryPathRequiredMessageConstant = "inventory file path required"
	encodeFailedTemplateConstant         = "failed to encode inventory: %w"
	writeFailedTemplateConstant          = "failed to write inventory %s: %w"
	readFailedTemplateConstant           = "failed to read inventory %s: %w"
	decodeFailedTemplateConstant         = "failed to decode inventory %s: %w"
)

// ErrInventoryPathRequired indicates an inventory operation without a file path.
var ErrInventoryPathRequired = errors.New(inventoryPathRequiredMessageConstant)

// Entry is one repository in an inventory file.
type Entry struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	RemoteURL string `json:"remote_url" yaml:"remote_url"`
}

// BuildEntries converts repository records into inventory entries named after their directories.
// Repeated names receive a numeric suffix so every entry restores into its own directory.
func BuildEntries(records []shared.RepositoryRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	nameUsage := map[string]int{}
	for _, record := range records {
		baseName := filepath.Base(record.Path)
		nameUsage[strings.ToLower(baseName)]++
		entryName := baseName
		if usage := nameUsage[strings.ToLower(baseName)]; usage > 1 {
			entryName = baseName + duplicateNameSeparatorConstant + strconv.Itoa(usage)
		}
		entries = append(entries, Entry{Name: entryName, Path: record.Path, RemoteURL: record.RemoteURL})
	}
	return entries
}

// Store reads and writes inventory files.
type Store struct {
	fileSystem shared.FileSystem
}

// NewStore constructs a Store. A nil file system selects the operating system.
func NewStore(fileSystem shared.FileSystem) *Store {
	if fileSystem == nil {
		fileSystem = filesystem.OSFileSystem{}
	}
	return &Store{fileSystem: fileSystem}
}

// Save writes entries to filePath, creating parent directories as needed.
func (store *Store) Save(filePath string, entries []Entry) error {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return ErrInventoryPathRequired
	}
	if entries == nil {
		entries = []Entry{}
	}

	var encoded []byte
	var encodeError error
	if isYAMLPath(trimmedPath) {
		encoded, encodeError = yaml.Marshal(entries)
	} else {
		encoded, encodeError = json.MarshalIndent(entries, "", jsonIndentConstant)
		encoded = append(encoded, '\n')
	}
	if encodeError != nil {
		return fmt.Errorf(encodeFailedTemplateConstant, encodeError)
	}

	if directoryError := store.fileSystem.MkdirAll(filepath.Dir(trimmedPath), inventoryDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(writeFailedTemplateConstant, trimmedPath, directoryError)
	}
	if writeError := store.fileSystem.WriteFile(trimmedPath, encoded, inventoryFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeFailedTemplateConstant, trimmedPath, writeError)
	}
	return nil
}

// Load reads the entries stored at filePath.
func (store *Store) Load(filePath string) ([]Entry, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return nil, ErrInventoryPathRequired
	}

	content, readError := store.fileSystem.ReadFile(trimmedPath)
	if readError != nil {
		return nil, fmt.Errorf(readFailedTemplateConstant, trimmedPath, readError)
	}

	entries := []Entry{}
	var decodeError error
	if isYAMLPath(trimmedPath) {
		decodeError = yaml.Unmarshal(content, &entries)
	} else {
		decodeError = json.Unmarshal(content, &entries)
	}
	if decodeError != nil {
		return nil, fmt.Errorf(decodeFailedTemplateConstant, trimmedPath, decodeError)
	}
	return entries, nil
}

func isYAMLPath(filePath string) bool {
	extension := strings.ToLower(filepath.Ext(filePath))
	return extension == yamlExtensionConstant || extension == ymlExtensionConstant
}
