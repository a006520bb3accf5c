package usecase

import (
	"context"
	"strings"

	"edubot/internal/domain"
	"edubot/pkg/utils"

	"go.uber.org/zap"
)

const pdfMIME = "application/pdf"

type contentUsecase struct {
	gateway domain.Gateway
	auth    domain.AuthUsecase
	files   domain.FileSource
	log     *zap.Logger
}

func NewContentUsecase(gw domain.Gateway, au domain.AuthUsecase, fs domain.FileSource, log *zap.Logger) domain.ContentUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &contentUsecase{gateway: gw, auth: au, files: fs, log: log}
}

// Upload sends a PDF or a web source for ingestion and returns the success
// message to show.
func (uc *contentUsecase) Upload(ctx context.Context, form domain.UploadForm) (string, error) {
	if form.SourceType == "" {
		form.SourceType = domain.SourcePDF
	}
	if err := validateUpload(form); err != nil {
		return "", err
	}

	token, err := uc.auth.Token(ctx)
	if err != nil {
		return "", err
	}

	upload := domain.Upload{
		Class:      form.Class,
		Subject:    form.Subject,
		Topic:      strings.TrimSpace(form.Topic),
		SourceType: form.SourceType,
	}

	switch form.SourceType {
	case domain.SourcePDF:
		f, err := uc.files.Read(form.FilePath)
		if err != nil {
			return "", err
		}
		if f.ContentType != pdfMIME {
			return "", domain.Invalid(msgNotPDF)
		}
		content := utils.EncodeBase64(f.Data)
		upload.URLOrFilename = f.Name
		upload.FileContent = &content
	case domain.SourceWeb:
		upload.URLOrFilename = strings.TrimSpace(form.URL)
	}

	uc.log.Info("uploading content",
		zap.String("class", upload.Class),
		zap.String("subject", upload.Subject),
		zap.String("topic", upload.Topic),
		zap.String("source_type", string(upload.SourceType)),
		zap.String("source", upload.URLOrFilename),
		zap.Int("base64_len", contentLen(upload.FileContent)),
	)

	if _, err := uc.gateway.UploadContent(ctx, token, upload); err != nil {
		return "", userFacing(err, "Failed to upload content. Please try again.")
	}
	return "Content uploaded successfully! " + upload.URLOrFilename, nil
}

// History lists past uploads. Gateway failures give an empty list.
func (uc *contentUsecase) History(ctx context.Context) ([]domain.UploadRecord, error) {
	token, err := uc.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := uc.gateway.UploadHistory(ctx, token)
	if err != nil {
		uc.log.Warn("upload history unavailable", zap.Error(err))
		return []domain.UploadRecord{}, nil
	}
	if rows == nil {
		rows = []domain.UploadRecord{}
	}
	return rows, nil
}

func contentLen(s *string) int {
	if s == nil {
		return 0
	}
	return len(*s)
}
