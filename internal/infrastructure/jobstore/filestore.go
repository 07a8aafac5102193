package jobstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/millscan/backend/internal/domain"
)

// Artifact file names inside each job directory.
const (
	metadataFile   = "metadata.json"
	textFile       = "extracted_text.txt"
	structuredFile = "structured_data.json"
)

const timestampLayout = "20060102_150405"

// FileStore persists jobs as one directory per job id under a root
// directory. Each artifact is an independent file, so writing one never
// touches its siblings, and jobs never interfere with each other.
type FileStore struct {
	root string
}

// NewFileStore creates the store, ensuring the root directory exists.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Create allocates a job id, creates its directory, and writes the initial
// metadata.
func (s *FileStore) Create(meta domain.NewJob) (string, error) {
	jobID := uuid.New().String()
	jobDir := filepath.Join(s.root, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return "", fmt.Errorf("create job directory: %w", err)
	}

	record := domain.JobMetadata{
		JobID:            jobID,
		OriginalFilename: meta.OriginalFilename,
		Timestamp:        time.Now().Format(timestampLayout),
		Status:           meta.Status,
		FileExtension:    meta.FileExtension,
		ProcessingParams: meta.ProcessingParams,
	}
	if err := s.writeMetadata(jobID, record); err != nil {
		return "", err
	}
	return jobID, nil
}

// WriteText stores the extracted text artifact.
func (s *FileStore) WriteText(jobID, text string) error {
	jobDir, err := s.jobDir(jobID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(jobDir, textFile), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write extracted text: %w", err)
	}
	return nil
}

// WriteStructured stores the structured record and flips
// has_structured_data in the metadata.
func (s *FileStore) WriteStructured(jobID string, rec *domain.StructuredRecord) error {
	jobDir, err := s.jobDir(jobID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode structured data: %w", err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, structuredFile), data, 0o644); err != nil {
		return fmt.Errorf("write structured data: %w", err)
	}

	meta, err := s.readMetadata(jobID)
	if err != nil {
		return err
	}
	meta.HasStructuredData = true
	return s.writeMetadata(jobID, meta)
}

// Read loads everything persisted for a job. An unknown id is a not-found
// result, never a panic or a raw filesystem error.
func (s *FileStore) Read(jobID string) (*domain.JobData, error) {
	jobDir, err := s.jobDir(jobID)
	if err != nil {
		return nil, err
	}

	meta, err := s.readMetadata(jobID)
	if err != nil {
		return nil, err
	}
	data := &domain.JobData{Metadata: meta}

	if text, err := os.ReadFile(filepath.Join(jobDir, textFile)); err == nil {
		data.ExtractedText = string(text)
	}

	if raw, err := os.ReadFile(filepath.Join(jobDir, structuredFile)); err == nil {
		rec, err := domain.ParseStructuredRecord(raw)
		if err != nil {
			log.Printf("[STORE] Corrupt structured data for job %s: %v", jobID, err)
		} else {
			data.Structured = rec
		}
	}
	return data, nil
}

// List returns the metadata of all jobs, newest first.
func (s *FileStore) List() ([]domain.JobMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var jobs []domain.JobMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.readMetadata(entry.Name())
		if err != nil {
			log.Printf("[STORE] Skipping job %s: %v", entry.Name(), err)
			continue
		}
		jobs = append(jobs, meta)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].Timestamp > jobs[j].Timestamp
	})
	return jobs, nil
}

// jobDir validates the id and resolves the job directory. Ids are always
// uuids we generated, so anything else is treated as not found, which also
// rules out path traversal.
func (s *FileStore) jobDir(jobID string) (string, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return "", domain.ErrJobNotFound
	}
	jobDir := filepath.Join(s.root, jobID)
	info, err := os.Stat(jobDir)
	if err != nil || !info.IsDir() {
		return "", domain.ErrJobNotFound
	}
	return jobDir, nil
}

func (s *FileStore) readMetadata(jobID string) (domain.JobMetadata, error) {
	var meta domain.JobMetadata
	raw, err := os.ReadFile(filepath.Join(s.root, jobID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return meta, domain.ErrJobNotFound
		}
		return meta, fmt.Errorf("read metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

func (s *FileStore) writeMetadata(jobID string, meta domain.JobMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, jobID, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}
