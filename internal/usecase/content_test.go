package usecase

import (
	"context"
	"errors"
	"testing"

	"edubot/internal/domain"
	"edubot/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func loggedIn() *memSession {
	return newMemSession(repository.KeyAuthToken, "tok", repository.KeyUserData, `{"email":"admin@school.in","role":"ADMIN"}`)
}

func TestUploadPDF(t *testing.T) {
	gw, fs := new(MockGateway), new(MockFileSource)
	uc := NewContentUsecase(gw, NewAuthUsecase(gw, loggedIn(), nil), fs, nil)

	fs.On("Read", "/docs/motion.pdf").Return(&domain.LocalFile{
		Name: "motion.pdf", ContentType: "application/pdf", Data: []byte("%PDF-"),
	}, nil)
	gw.On("UploadContent", mock.Anything, "tok", mock.MatchedBy(func(u domain.Upload) bool {
		return u.SourceType == domain.SourcePDF &&
			u.URLOrFilename == "motion.pdf" &&
			u.FileContent != nil && *u.FileContent == "JVBERi0=" &&
			u.Topic == "Motion"
	})).Return(map[string]any{"message": "stored"}, nil).Once()

	msg, err := uc.Upload(context.Background(), domain.UploadForm{
		Class: "9", Subject: "Physics", Topic: " Motion ", FilePath: "/docs/motion.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "Content uploaded successfully! motion.pdf", msg)
	gw.AssertExpectations(t)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	gw, fs := new(MockGateway), new(MockFileSource)
	uc := NewContentUsecase(gw, NewAuthUsecase(gw, loggedIn(), nil), fs, nil)

	fs.On("Read", "/docs/notes.txt").Return(&domain.LocalFile{Name: "notes.txt", ContentType: "text/plain; charset=utf-8"}, nil)

	_, err := uc.Upload(context.Background(), domain.UploadForm{
		Class: "9", Subject: "Physics", Topic: "Motion", SourceType: domain.SourcePDF, FilePath: "/docs/notes.txt",
	})
	assertInvalid(t, err, msgNotPDF)
	gw.AssertNotCalled(t, "UploadContent", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadWeb(t *testing.T) {
	gw := new(MockGateway)
	uc := NewContentUsecase(gw, NewAuthUsecase(gw, loggedIn(), nil), new(MockFileSource), nil)

	gw.On("UploadContent", mock.Anything, "tok", mock.MatchedBy(func(u domain.Upload) bool {
		return u.SourceType == domain.SourceWeb && u.FileContent == nil && u.URLOrFilename == "https://example.org/cells"
	})).Return(map[string]any{}, nil)

	msg, err := uc.Upload(context.Background(), domain.UploadForm{
		Class: "7", Subject: "Biology", Topic: "Cells", SourceType: domain.SourceWeb, URL: " https://example.org/cells ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Content uploaded successfully! https://example.org/cells", msg)
}

func TestUploadErrors(t *testing.T) {
	form := domain.UploadForm{Class: "7", Subject: "Biology", Topic: "Cells", SourceType: domain.SourceWeb, URL: "https://example.org"}

	gw := new(MockGateway)
	uc := NewContentUsecase(gw, NewAuthUsecase(gw, newMemSession(), nil), new(MockFileSource), nil)
	_, err := uc.Upload(context.Background(), form)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	gw = new(MockGateway)
	gw.On("UploadContent", mock.Anything, "tok", mock.Anything).Return(nil, errors.New("boom"))
	uc = NewContentUsecase(gw, NewAuthUsecase(gw, loggedIn(), nil), new(MockFileSource), nil)
	_, err = uc.Upload(context.Background(), form)
	require.Error(t, err)
	assert.Equal(t, "Failed to upload content. Please try again.", err.Error())
}

func TestHistorySwallowsGatewayErrors(t *testing.T) {
	gw := new(MockGateway)
	gw.On("UploadHistory", mock.Anything, "tok").Return(nil, domain.ErrUnreachable).Once()
	uc := NewContentUsecase(gw, NewAuthUsecase(gw, loggedIn(), nil), new(MockFileSource), nil)

	rows, err := uc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)

	gw.On("UploadHistory", mock.Anything, "tok").Return([]domain.UploadRecord{{"topic": "Cells"}}, nil).Once()
	rows, err = uc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
