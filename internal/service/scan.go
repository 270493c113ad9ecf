package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"safeswipe/internal/detector"
	"safeswipe/internal/imaging"
	"safeswipe/internal/model"
	"safeswipe/internal/repository"
	"safeswipe/internal/scoring"
	"safeswipe/internal/storage"
)

var (
	ErrNoImages     = errors.New("at least one image is required")
	ErrInvalidImage = errors.New("invalid image")
	ErrIDRequired   = errors.New("id is required")
	ErrNotFound     = errors.New("scan not found")
)

// presignExpiry is the lifetime of download links for archived images.
const presignExpiry = 15 * time.Minute

// ScanListResult is the service-level DTO for paginated scans.
type ScanListResult struct {
	Items []model.Scan `json:"data"`
	Total int          `json:"total"`
}

// ImageLink pairs an archived image with a time-limited download URL.
type ImageLink struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// UploadedImage is one image file extracted from the multipart request.
// The stored content type is derived from the decoded format, not from the
// client-supplied header, so none is carried here.
type UploadedImage struct {
	Data     []byte
	Filename string
}

// Options bound the analysis pipeline.
type Options struct {
	// MaxFiles caps how many uploaded images are analyzed; extras are ignored.
	MaxFiles int
	// NearDupDistance is the maximal pHash Hamming distance treated as a
	// near-duplicate. 0 only matches identical hashes.
	NearDupDistance int
	// Concurrency bounds parallel classifier calls within one scan.
	Concurrency int
}

// ScanService defines the use cases for profile scans.
type ScanService interface {
	// Analyze runs the full pipeline over the uploaded images and bio,
	// archives the originals, persists the scan, and returns it. Storage
	// uploads are rolled back if the DB save fails.
	Analyze(ctx context.Context, images []UploadedImage, bio string) (*model.Scan, error)

	// List returns scans using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*ScanListResult, error)

	// Get returns a single scan by its ID.
	Get(ctx context.Context, id string) (*model.Scan, error)

	// Delete removes a scan and its archived images.
	Delete(ctx context.Context, id string) error

	// PresignImages returns download links for the scan's archived images.
	PresignImages(ctx context.Context, id string) ([]ImageLink, error)
}

type scanService struct {
	store           storage.Storage
	repo            repository.ScanRepository
	det             detector.Detector
	maxFiles        int
	nearDupDistance int
	concurrency     int
}

// NewScanService constructs a new ScanService.
func NewScanService(store storage.Storage, repo repository.ScanRepository, det detector.Detector, opts Options) ScanService {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = 5
	}
	if opts.NearDupDistance < 0 {
		opts.NearDupDistance = 0
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &scanService{
		store:           store,
		repo:            repo,
		det:             det,
		maxFiles:        opts.MaxFiles,
		nearDupDistance: opts.NearDupDistance,
		concurrency:     opts.Concurrency,
	}
}

func (s *scanService) Analyze(ctx context.Context, images []UploadedImage, bio string) (*model.Scan, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if len(images) > s.maxFiles {
		images = images[:s.maxFiles]
	}
	n := len(images)

	// Decode and hash up front so an undecodable upload fails the whole
	// request before any remote call is made.
	hashes := make([]*goimagehash.ImageHash, n)
	formats := make([]string, n)
	for i, up := range images {
		img, format, err := imaging.Decode(up.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidImage, up.Filename)
		}
		h, err := imaging.PHash(img)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", up.Filename, err)
		}
		hashes[i] = h
		formats[i] = format
	}

	// Classify with bounded concurrency. A failed inference call degrades
	// the scan instead of failing it; only context cancellation aborts.
	scores := make([]float64, n)
	labels := make([]string, n)
	failed := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range images {
		i := i
		g.Go(func() error {
			preds, err := s.det.Classify(gctx, images[i].Data)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed[i] = true
				return nil
			}
			scores[i], labels[i] = scoring.AIScore(preds)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Signals in pipeline order: per-image AI indicators, near-duplicates,
	// bio cliches.
	signals := make([]string, 0)
	flagged := make([]bool, n)
	var topAI float64
	degraded := false
	for i := 0; i < n; i++ {
		if failed[i] {
			degraded = true
			continue
		}
		if scores[i] >= scoring.FlagThreshold {
			flagged[i] = true
			signals = append(signals, scoring.AISignal(scores[i]))
		}
		if scores[i] > topAI {
			topAI = scores[i]
		}
	}

	nearDup, err := imaging.HasNearDuplicate(hashes, s.nearDupDistance)
	if err != nil {
		return nil, err
	}
	if nearDup {
		signals = append(signals, scoring.NearDuplicateSignal)
	}

	hits := scoring.BioClicheHits(bio)
	if len(hits) > 0 {
		signals = append(signals, scoring.ClicheSignal(hits))
	}

	risk := scoring.HeuristicRisk(nearDup, len(hits))
	verdict := scoring.VerdictFor(topAI, risk)

	// Archive originals, then persist. Objects uploaded before a failure
	// are deleted again so storage and DB stay consistent.
	scanID := uuid.New().String()
	uploaded := make([]string, 0, n)
	rollback := func() {
		for _, key := range uploaded {
			_ = s.store.Delete(ctx, key)
		}
	}

	reports := make([]model.ImageReport, n)
	for i, up := range images {
		ct := "image/" + formats[i]
		key := fmt.Sprintf("scans/%s/%d%s", scanID, i, extForFormat(formats[i]))
		info, err := s.store.Put(ctx, key, bytes.NewReader(up.Data), storage.PutObjectOptions{
			Size:        int64(len(up.Data)),
			ContentType: ct,
			Metadata: map[string]string{
				"original-filename": up.Filename,
			},
		})
		if err != nil {
			rollback()
			return nil, fmt.Errorf("archive image: %w", err)
		}
		uploaded = append(uploaded, key)

		reports[i] = model.ImageReport{
			ObjectKey:   info.Key,
			Filename:    up.Filename,
			ContentType: ct,
			Size:        info.Size,
			PHash:       hashes[i].ToString(),
			AIScore:     scores[i],
			TopLabel:    labels[i],
			Flagged:     flagged[i],
		}
	}

	scan := &model.Scan{
		ID:         scanID,
		Verdict:    verdict,
		RiskScore:  risk,
		TopAIScore: topAI,
		ModelID:    s.det.ModelID(),
		Bio:        bio,
		Signals:    signals,
		Images:     reports,
		Degraded:   degraded,
		CreatedAt:  time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, scan)
	if err != nil {
		rollback()
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated scans without exposing repository types.
func (s *scanService) List(ctx context.Context, limit, offset int) (*ScanListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &ScanListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a scan by ID.
func (s *scanService) Get(ctx context.Context, id string) (*model.Scan, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	scan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return scan, nil
}

// Delete removes the archived images first, then the scan record. If an
// object delete fails the DB row is kept so the reference is not lost.
func (s *scanService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	scan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	for _, img := range scan.Images {
		if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// PresignImages returns presigned download URLs for the scan's images.
func (s *scanService) PresignImages(ctx context.Context, id string) ([]ImageLink, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	scan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	links := make([]ImageLink, 0, len(scan.Images))
	for _, img := range scan.Images {
		u, err := s.store.PresignGet(ctx, img.ObjectKey, presignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", img.ObjectKey, err)
		}
		links = append(links, ImageLink{Filename: img.Filename, URL: u})
	}
	return links, nil
}

// extForFormat maps a decoded image format name to a file extension.
func extForFormat(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "":
		return ".bin"
	default:
		return "." + format
	}
}
