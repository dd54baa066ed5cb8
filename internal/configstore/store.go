package configstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"

	repoerrors "github.com/temirov/workspace/internal/repos/errors"
	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	storeFilePermissions               = 0o644
	fileSystemNotConfiguredMessage     = "configuration store file system not configured"
	storePathRequiredMessageConstant   = "configuration store path not configured"
	storeReadFailureTemplateConstant   = "unable to read %s"
	storeParseFailureTemplateConstant  = "unable to parse %s"
	storeEncodeFailureTemplateConstant = "unable to encode %s"
	storeWriteFailureTemplateConstant  = "unable to write %s"
	storeInvalidEntryTemplateConstant  = "invalid entry %d in %s"
	legacyReadFailureTemplateConstant  = "unable to read %s"
	workspaceOverrideSectionTemplate   = "workspaces.%s"
	defaultsSectionNameConstant        = "defaults"
	yamlIndentationConstant            = 2
)

// ErrFileSystemNotConfigured indicates the store was constructed without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessage)

// ErrStorePathNotConfigured indicates the store was constructed without a path.
var ErrStorePathNotConfigured = errors.New(storePathRequiredMessageConstant)

// Store reads and writes the tiered repository configuration.
type Store interface {
	Overrides(workspaceName string) ([]shared.RepositorySpec, error)
	Defaults() ([]shared.RepositorySpec, error)
	Legacy() ([]shared.RepositorySpec, error)
	OverriddenWorkspaces() ([]string, error)
	SetOverride(workspaceName string, spec shared.RepositorySpec) error
	SetDefault(spec shared.RepositorySpec) error
	ImportLegacy(workspaceName string, source io.Reader) (ImportResult, error)
	RemoveWorkspace(workspaceName string) error
}

// ImportResult lists the entries imported into a workspace.
type ImportResult struct {
	WorkspaceName string
	Imported      []shared.RepositorySpec
}

type storeDocument struct {
	Defaults   []storeEntry            `yaml:"defaults,omitempty"`
	Workspaces map[string][]storeEntry `yaml:"workspaces,omitempty"`
}

type storeEntry struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	Ref    string `yaml:"ref,omitempty"`
}

// Dependencies enumerates collaborators required by FileStore.
type Dependencies struct {
	FileSystem shared.FileSystem
}

// FileStore implements Store over a YAML document and the legacy flat file.
type FileStore struct {
	fileSystem shared.FileSystem
	storePath  string
	legacyPath string
}

// NewFileStore constructs a FileStore for the layout's store and legacy paths.
func NewFileStore(dependencies Dependencies, layout shared.Layout) (*FileStore, error) {
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if len(layout.RootPath) == 0 {
		return nil, ErrStorePathNotConfigured
	}
	return &FileStore{
		fileSystem: dependencies.FileSystem,
		storePath:  layout.StorePath(),
		legacyPath: layout.LegacyPath(),
	}, nil
}

// Overrides returns the workspace's own entries in insertion order.
func (store *FileStore) Overrides(workspaceName string) ([]shared.RepositorySpec, error) {
	document, readError := store.readDocument()
	if readError != nil {
		return nil, readError
	}
	return store.decodeEntries(fmt.Sprintf(workspaceOverrideSectionTemplate, workspaceName), document.Workspaces[workspaceName])
}

// Defaults returns the entries inherited by every workspace.
func (store *FileStore) Defaults() ([]shared.RepositorySpec, error) {
	document, readError := store.readDocument()
	if readError != nil {
		return nil, readError
	}
	return store.decodeEntries(defaultsSectionNameConstant, document.Defaults)
}

// Legacy returns the entries of the legacy file; a missing file yields none.
func (store *FileStore) Legacy() ([]shared.RepositorySpec, error) {
	content, readError := store.fileSystem.ReadFile(store.legacyPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, repoerrors.NewConfigError("", repoerrors.OperationResolve, fmt.Sprintf(legacyReadFailureTemplateConstant, store.legacyPath), readError)
	}
	return ParseLegacy(store.legacyPath, bytes.NewReader(content))
}

// OverriddenWorkspaces lists workspaces that have override entries, sorted.
func (store *FileStore) OverriddenWorkspaces() ([]string, error) {
	document, readError := store.readDocument()
	if readError != nil {
		return nil, readError
	}
	workspaceNames := make([]string, 0, len(document.Workspaces))
	for workspaceName, entries := range document.Workspaces {
		if len(entries) > 0 {
			workspaceNames = append(workspaceNames, workspaceName)
		}
	}
	sort.Strings(workspaceNames)
	return workspaceNames, nil
}

// SetOverride upserts spec into the workspace's entries by name, keeping its position.
func (store *FileStore) SetOverride(workspaceName string, spec shared.RepositorySpec) error {
	if validationError := shared.ValidateWorkspaceName(workspaceName); validationError != nil {
		return validationError
	}
	return store.mutate(func(document *storeDocument) error {
		if document.Workspaces == nil {
			document.Workspaces = make(map[string][]storeEntry)
		}
		document.Workspaces[workspaceName] = upsertEntry(document.Workspaces[workspaceName], spec)
		return nil
	})
}

// SetDefault upserts spec into the default entries by name.
func (store *FileStore) SetDefault(spec shared.RepositorySpec) error {
	return store.mutate(func(document *storeDocument) error {
		document.Defaults = upsertEntry(document.Defaults, spec)
		return nil
	})
}

// ImportLegacy decodes source and upserts every entry into the workspace's overrides in a single write.
// A malformed line aborts the import before anything is written.
func (store *FileStore) ImportLegacy(workspaceName string, source io.Reader) (ImportResult, error) {
	if validationError := shared.ValidateWorkspaceName(workspaceName); validationError != nil {
		return ImportResult{}, validationError
	}
	importedSpecs, parseError := ParseLegacy(sourceName(source), source)
	if parseError != nil {
		return ImportResult{}, parseError
	}

	mutationError := store.mutate(func(document *storeDocument) error {
		if document.Workspaces == nil {
			document.Workspaces = make(map[string][]storeEntry)
		}
		entries := document.Workspaces[workspaceName]
		for _, spec := range importedSpecs {
			entries = upsertEntry(entries, spec)
		}
		document.Workspaces[workspaceName] = entries
		return nil
	})
	if mutationError != nil {
		return ImportResult{}, mutationError
	}
	return ImportResult{WorkspaceName: workspaceName, Imported: importedSpecs}, nil
}

// RemoveWorkspace drops the workspace's override entries. Unknown workspaces are ignored.
func (store *FileStore) RemoveWorkspace(workspaceName string) error {
	document, readError := store.readDocument()
	if readError != nil {
		return readError
	}
	if _, exists := document.Workspaces[workspaceName]; !exists {
		return nil
	}
	delete(document.Workspaces, workspaceName)
	return store.writeDocument(document)
}

func (store *FileStore) mutate(change func(document *storeDocument) error) error {
	document, readError := store.readDocument()
	if readError != nil {
		return readError
	}
	if changeError := change(&document); changeError != nil {
		return changeError
	}
	return store.writeDocument(document)
}

func (store *FileStore) readDocument() (storeDocument, error) {
	content, readError := store.fileSystem.ReadFile(store.storePath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return storeDocument{}, nil
		}
		return storeDocument{}, repoerrors.NewConfigError("", repoerrors.OperationStore, fmt.Sprintf(storeReadFailureTemplateConstant, store.storePath), readError)
	}

	var document storeDocument
	if len(bytes.TrimSpace(content)) == 0 {
		return document, nil
	}
	if decodeError := yaml.Unmarshal(content, &document); decodeError != nil {
		return storeDocument{}, repoerrors.NewConfigError("", repoerrors.OperationStore, fmt.Sprintf(storeParseFailureTemplateConstant, store.storePath), decodeError)
	}
	return document, nil
}

func (store *FileStore) writeDocument(document storeDocument) error {
	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndentationConstant)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return repoerrors.NewConfigError("", repoerrors.OperationStore, fmt.Sprintf(storeEncodeFailureTemplateConstant, store.storePath), encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return repoerrors.NewConfigError("", repoerrors.OperationStore, fmt.Sprintf(storeEncodeFailureTemplateConstant, store.storePath), closeError)
	}
	if writeError := store.fileSystem.AtomicWrite(store.storePath, buffer.Bytes(), storeFilePermissions); writeError != nil {
		return repoerrors.Wrap(nil, "", "", repoerrors.OperationStore, fmt.Sprintf(storeWriteFailureTemplateConstant, store.storePath), writeError)
	}
	return nil
}

func (store *FileStore) decodeEntries(section string, entries []storeEntry) ([]shared.RepositorySpec, error) {
	specs := make([]shared.RepositorySpec, 0, len(entries))
	for entryIndex, entry := range entries {
		spec, specError := shared.NewRepositorySpec(entry.URL, entry.Branch, entry.Ref)
		if specError != nil {
			return nil, repoerrors.NewConfigError("", repoerrors.OperationResolve, fmt.Sprintf(storeInvalidEntryTemplateConstant, entryIndex+1, store.storePath+"#"+section), specError)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func upsertEntry(entries []storeEntry, spec shared.RepositorySpec) []storeEntry {
	replacement := storeEntry{URL: spec.URL, Branch: spec.Branch, Ref: spec.PinnedRef}
	for entryIndex, entry := range entries {
		existingSpec, specError := shared.NewRepositorySpec(entry.URL, entry.Branch, entry.Ref)
		if specError == nil && existingSpec.Name == spec.Name {
			updated := append([]storeEntry(nil), entries...)
			updated[entryIndex] = replacement
			return updated
		}
	}
	return append(entries, replacement)
}

type namedSource interface {
	Name() string
}

func sourceName(source io.Reader) string {
	if named, isNamed := source.(namedSource); isNamed {
		return named.Name()
	}
	return ""
}
