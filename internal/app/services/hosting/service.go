// Package hosting creates listings on behalf of a host.
package hosting

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tinyhouse/internal/app/apperr"
	appoutbox "tinyhouse/internal/app/outbox"
	"tinyhouse/internal/app/services/authz"
	domainlistings "tinyhouse/internal/domain/listings"
	domainuser "tinyhouse/internal/domain/user"
)

var ErrInvalidImage = errors.New("hosting: image is not a valid base64 data url")

type Geocoder interface {
	Geocode(ctx context.Context, address string) (domainlistings.Location, error)
}

type Sanitizer interface {
	Sanitize(input string) string
}

// ImageStore persists an uploaded image and returns its public URL.
type ImageStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}

type Service struct {
	Listings  domainlistings.Repository
	Users     domainuser.Repository
	Geocoder  Geocoder
	Sanitizer Sanitizer
	Images    ImageStore
	Outbox    appoutbox.Outbox
	Encoder   appoutbox.EventEncoder
	Logger    *slog.Logger
	NewID     func() string
	Now       func() time.Time
}

type CreateParams struct {
	Viewer      domainuser.Viewer
	Title       string
	Description string
	Image       string
	Type        string
	Address     string
	Price       int64
	NumOfGuests int
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domainlistings.Listing, error) {
	const op = "hosting.Create"
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := authz.Require(params.Viewer, op); err != nil {
		return nil, err
	}
	kind, err := domainlistings.ParseType(params.Type)
	if err != nil {
		return nil, apperr.Validation(op, err)
	}
	title := s.sanitize(params.Title)
	description := s.sanitize(params.Description)

	draft := domainlistings.CreateParams{
		Host:        params.Viewer.ID,
		Title:       title,
		Description: description,
		Type:        kind,
		Address:     params.Address,
		Price:       params.Price,
		NumOfGuests: params.NumOfGuests,
	}
	if err := draft.ValidateContent(); err != nil {
		return nil, apperr.Validation(op, err)
	}

	loc, err := s.Geocoder.Geocode(ctx, strings.TrimSpace(params.Address))
	if err != nil {
		return nil, apperr.Provider(op, err)
	}
	if !loc.Complete() {
		return nil, apperr.Validation(op, domainlistings.ErrAddressRequired)
	}

	id := domainlistings.ID(s.newID())
	image, err := s.storeImage(ctx, id, params.Image)
	if err != nil {
		return nil, err
	}

	draft.ID = id
	draft.Image = image
	draft.Location = loc
	draft.Now = s.now()
	l, err := domainlistings.NewListing(draft)
	if err != nil {
		return nil, apperr.Validation(op, err)
	}
	if err := s.Listings.Insert(ctx, l); err != nil {
		return nil, apperr.Store(op, err)
	}
	if err := s.Users.AppendListing(ctx, params.Viewer.ID, string(l.ID)); err != nil {
		return nil, apperr.Store(op, err)
	}
	if err := appoutbox.Record(ctx, s.Outbox, s.Encoder, domainlistings.CreatedEvent(l)); err != nil && s.Logger != nil {
		s.Logger.ErrorContext(ctx, "failed to record listing events", "listing_id", l.ID, "error", err)
	}
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "listing created", "listing_id", l.ID, "host_id", l.Host, "city", l.Location.City)
	}
	return l, nil
}

// storeImage uploads a data-URL image and returns its public URL. Any other
// value is kept as given.
func (s *Service) storeImage(ctx context.Context, id domainlistings.ID, raw string) (string, error) {
	const op = "hosting.Create"
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "data:") {
		return raw, nil
	}
	contentType, data, err := decodeDataURL(raw)
	if err != nil {
		return "", apperr.Validation(op, err)
	}
	if s.Images == nil {
		return "", apperr.Provider(op, errors.New("hosting: image store not configured"))
	}
	key := "listings/" + string(id) + extension(contentType)
	url, err := s.Images.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return "", apperr.Provider(op, err)
	}
	return url, nil
}

func decodeDataURL(raw string) (string, []byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrInvalidImage
	}
	contentType := strings.TrimSuffix(header, ";base64")
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, data, nil
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}

func (s *Service) sanitize(v string) string {
	if s.Sanitizer == nil {
		return strings.TrimSpace(v)
	}
	return s.Sanitizer.Sanitize(v)
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Listings == nil:
		return errors.New("hosting: listing repository required")
	case s.Users == nil:
		return errors.New("hosting: user repository required")
	case s.Geocoder == nil:
		return errors.New("hosting: geocoder required")
	default:
		return nil
	}
}
