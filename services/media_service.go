package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	fig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/nfnt/resize"

	_ "image/gif"
	_ "image/png"

	"github.com/filmcrewhq/filmcrew/config"
	"github.com/filmcrewhq/filmcrew/db"
	apiError "github.com/filmcrewhq/filmcrew/errors"
)

const MaxImageFileSize = 5 * 1024 * 1024 // 5 MB

// MediaService processes and stores profile avatars and company logos on S3.
type MediaService interface {
	UploadAvatar(userID uint, fileHeader *multipart.FileHeader) (string, string, *apiError.Error)
	UploadCompanyLogo(actorID uint, companyID uuid.UUID, fileHeader *multipart.FileHeader) (string, *apiError.Error)
}

type mediaService struct {
	Config      *config.Config
	authRepo    db.AuthRepository
	companyRepo db.CompanyRepository
	s3Client    *s3.Client
}

// NewMediaService builds the S3 client once from static credentials in
// config.
func NewMediaService(authRepo db.AuthRepository, companyRepo db.CompanyRepository, conf *config.Config) (MediaService, error) {
	cfg, err := fig.LoadDefaultConfig(context.TODO(),
		fig.WithRegion(conf.AwsRegion),
		fig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AwsAccessKeyID, conf.AwsSecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %v", err)
	}

	return &mediaService{
		Config:      conf,
		authRepo:    authRepo,
		companyRepo: companyRepo,
		s3Client:    s3.NewFromConfig(cfg),
	}, nil
}

func checkSupportedImage(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpeg", ".jpg", ".gif":
		return true
	}
	return false
}

// UploadAvatar stores a full-size avatar and a thumbnail under the user's
// prefix and persists both URLs on the profile.
func (m *mediaService) UploadAvatar(userID uint, fileHeader *multipart.FileHeader) (string, string, *apiError.Error) {
	img, apiErr := m.decodeUpload(fileHeader)
	if apiErr != nil {
		return "", "", apiErr
	}

	avatarImg := imaging.Fill(img, 400, 400, imaging.Center, imaging.Lanczos)
	thumbnailImg := resize.Resize(96, 0, avatarImg, resize.Lanczos3)

	name := uuid.New().String()
	avatarKey := fmt.Sprintf("avatars/%d/%s.jpg", userID, name)
	thumbnailKey := fmt.Sprintf("avatars/%d/thumb_%s.jpg", userID, name)

	avatarURL, err := m.putJPEG(avatarKey, avatarImg)
	if err != nil {
		log.Printf("media: upload avatar for user %d: %v", userID, err)
		return "", "", apiError.ErrInternalServerError
	}
	thumbnailURL, err := m.putJPEG(thumbnailKey, thumbnailImg)
	if err != nil {
		log.Printf("media: upload thumbnail for user %d: %v", userID, err)
		return "", "", apiError.ErrInternalServerError
	}

	if err := m.authRepo.UpsertUserAvatar(userID, avatarURL, thumbnailURL); err != nil {
		return "", "", apiError.FromDB(err, "user not found")
	}
	return avatarURL, thumbnailURL, nil
}

// UploadCompanyLogo replaces the company logo; only managers may do it.
func (m *mediaService) UploadCompanyLogo(actorID uint, companyID uuid.UUID, fileHeader *multipart.FileHeader) (string, *apiError.Error) {
	member, err := m.companyRepo.FindMember(companyID, actorID)
	if err != nil {
		return "", apiError.FromDB(err, "company not found")
	}
	if !member.Role.CanManage() {
		return "", apiError.ErrForbidden
	}

	img, apiErr := m.decodeUpload(fileHeader)
	if apiErr != nil {
		return "", apiErr
	}
	logoImg := imaging.Fit(img, 800, 800, imaging.Lanczos)

	key := fmt.Sprintf("logos/%s/%s.jpg", companyID, uuid.New().String())
	logoURL, err := m.putJPEG(key, logoImg)
	if err != nil {
		log.Printf("media: upload logo for company %s: %v", companyID, err)
		return "", apiError.ErrInternalServerError
	}

	company, err := m.companyRepo.FindCompanyByID(companyID)
	if err != nil {
		return "", apiError.FromDB(err, "company not found")
	}
	company.LogoURL = logoURL
	if err := m.companyRepo.UpdateCompany(company); err != nil {
		return "", apiError.ErrInternalServerError
	}
	return logoURL, nil
}

func (m *mediaService) decodeUpload(fileHeader *multipart.FileHeader) (image.Image, *apiError.Error) {
	if fileHeader.Size > MaxImageFileSize {
		return nil, apiError.New("file size exceeds the maximum allowed size", http.StatusBadRequest)
	}
	if !checkSupportedImage(fileHeader.Filename) {
		return nil, apiError.New("unsupported file type", http.StatusBadRequest)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apiError.ErrBadRequest
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, apiError.New("could not decode image", http.StatusBadRequest)
	}
	return img, nil
}

func (m *mediaService) putJPEG(key string, img image.Image) (string, error) {
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := m.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.Config.AvatarBucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ACL:         "public-read",
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.Config.AvatarBucket, m.Config.AwsRegion, key), nil
}
