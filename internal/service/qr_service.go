package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/dto"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/ledger"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/model"
	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	qrLabelSize = 400
	qrBulkSize  = 200
)

// QREncoder renders product codes. Implemented by infra.QRGenerator.
type QREncoder interface {
	ProductURL(productID string) string
	PNG(content string, size int) ([]byte, error)
}

// QRService stores one QR code per product. Codes are generated on first
// request and served from the table afterwards.
type QRService interface {
	// Get returns the product's code, generating and storing it when absent.
	// A stored code has its access counter bumped.
	Get(ctx context.Context, actor, productID string) (*dto.QRCodeResponse, error)
	// PNG returns the raw image of the product's code, generating it when absent.
	PNG(ctx context.Context, actor, productID string) ([]byte, error)
	// GenerateAll makes sure every active product has a code.
	GenerateAll(ctx context.Context, actor string) (*dto.QRBulkResponse, error)
	List(ctx context.Context) ([]dto.QRCodeResponse, error)
	Delete(ctx context.Context, productID string) error
	Clear(ctx context.Context) (*dto.QRClearResponse, error)
}

type qrService struct {
	qrs      repository.QRCodeRepository
	products repository.ProductRepository
	encoder  QREncoder
	locks    *ledger.KeyedMutex
	now      Clock
}

func NewQRService(qrs repository.QRCodeRepository, products repository.ProductRepository, encoder QREncoder, locks *ledger.KeyedMutex) QRService {
	return &qrService{qrs: qrs, products: products, encoder: encoder, locks: locks, now: time.Now}
}

func (s *qrService) Get(ctx context.Context, actor, productID string) (*dto.QRCodeResponse, error) {
	p, err := findActiveProduct(ctx, s.products, productID)
	if err != nil {
		return nil, err
	}
	q, cached, err := s.getOrCreate(ctx, actor, p, qrLabelSize, true)
	if err != nil {
		return nil, err
	}
	resp := toQRCodeResponse(q, cached)
	return &resp, nil
}

func (s *qrService) PNG(ctx context.Context, actor, productID string) ([]byte, error) {
	p, err := findActiveProduct(ctx, s.products, productID)
	if err != nil {
		return nil, err
	}
	q, _, err := s.getOrCreate(ctx, actor, p, qrLabelSize, true)
	if err != nil {
		return nil, err
	}
	return q.PNG, nil
}

func (s *qrService) GenerateAll(ctx context.Context, actor string) (*dto.QRBulkResponse, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.QRBulkResponse{Codes: make([]dto.QRCodeResponse, 0, len(products))}
	for i := range products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q, cached, err := s.getOrCreate(ctx, actor, &products[i], qrBulkSize, false)
		if err != nil {
			return nil, fmt.Errorf("qr code %s: %w", products[i].ProductID, err)
		}
		if cached {
			resp.Existing++
		} else {
			resp.Generated++
		}
		resp.Codes = append(resp.Codes, toQRCodeResponse(q, cached))
	}
	log.Info().Int("generated", resp.Generated).Int("existing", resp.Existing).Str("actor", actor).Msg("qr codes generated")
	return resp, nil
}

func (s *qrService) List(ctx context.Context) ([]dto.QRCodeResponse, error) {
	codes, err := s.qrs.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.QRCodeResponse, len(codes))
	for i := range codes {
		out[i] = toQRCodeResponse(&codes[i], true)
	}
	return out, nil
}

func (s *qrService) Delete(ctx context.Context, productID string) error {
	unlock := s.locks.Lock(ledger.ProductKey(productID))
	defer unlock()

	var n int64
	err := runTx(ctx, s.qrs.DB(), func(tx *gorm.DB) error {
		var err error
		n, err = s.qrs.DeleteByProductTx(tx, productID)
		return err
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrQRCodeNotFound
	}
	return nil
}

func (s *qrService) Clear(ctx context.Context) (*dto.QRClearResponse, error) {
	n, err := s.qrs.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("deleted", n).Msg("qr codes cleared")
	return &dto.QRClearResponse{Deleted: n}, nil
}

// getOrCreate runs under the product lock so concurrent first requests store
// a single code. touch bumps the access counter of a stored code.
func (s *qrService) getOrCreate(ctx context.Context, actor string, p *model.Product, size int, touch bool) (*model.QRCode, bool, error) {
	unlock := s.locks.Lock(ledger.ProductKey(p.ProductID))
	defer unlock()

	now := s.now()
	var (
		code   *model.QRCode
		cached bool
	)
	err := runTx(ctx, s.qrs.DB(), func(tx *gorm.DB) error {
		q, err := s.qrs.FindByProductTx(tx, p.ProductID)
		if err == nil {
			cached = true
			if touch {
				if err := s.qrs.TouchTx(tx, q.ID, now); err != nil {
					return fmt.Errorf("touch qr code: %w", err)
				}
				q.AccessCount++
				q.LastAccessed = now
			}
			code = q
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		url := s.encoder.ProductURL(p.ProductID)
		png, err := s.encoder.PNG(url, size)
		if err != nil {
			return err
		}
		code = &model.QRCode{
			ID:           uuid.New(),
			ProductID:    p.ProductID,
			ProductName:  p.Name,
			URL:          url,
			PNG:          png,
			Size:         size,
			GeneratedBy:  actor,
			GeneratedAt:  now,
			LastAccessed: now,
		}
		return s.qrs.CreateTx(tx, code)
	})
	if err != nil {
		return nil, false, err
	}
	return code, cached, nil
}
