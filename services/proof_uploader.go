package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"rentflow/errors"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ProofFile tệp minh chứng; URL khác rỗng nghĩa là tệp đã được tải lên trước đó
type ProofFile struct {
	Filename string
	Open     func() (io.ReadCloser, error)
	URL      string
}

// ProofUploader lưu tệp minh chứng và trả về URL
type ProofUploader interface {
	Upload(ctx context.Context, reservationID uint, file ProofFile) (string, error)
}

// CloudinaryUploader tải minh chứng lên Cloudinary, mỗi đặt chỗ một thư mục
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cld *cloudinary.Cloudinary, folder string) *CloudinaryUploader {
	if folder == "" {
		folder = "reservation-proofs"
	}
	return &CloudinaryUploader{cld: cld, folder: folder}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, reservationID uint, file ProofFile) (string, error) {
	if file.URL != "" {
		return file.URL, nil
	}
	if u.cld == nil || file.Open == nil {
		return "", errors.NewAppError(errors.ErrCodeUploadFailed, "chưa cấu hình nơi lưu minh chứng", nil)
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.NewAppError(errors.ErrCodeUploadFailed, "lỗi khi mở file", err)
	}
	defer src.Close()

	resp, err := u.cld.Upload.Upload(ctx, src, uploader.UploadParams{
		Folder:       fmt.Sprintf("%s/%d", u.folder, reservationID),
		ResourceType: "auto",
	})
	if err != nil {
		return "", errors.NewAppError(errors.ErrCodeUploadFailed, "upload thất bại", err)
	}
	if resp.Error.Message != "" {
		return "", errors.NewAppError(errors.ErrCodeUploadFailed, "upload thất bại: "+resp.Error.Message, nil)
	}
	return resp.SecureURL, nil
}

// URLOnlyUploader chỉ chấp nhận minh chứng đã có URL, dùng khi không cấu hình Cloudinary
type URLOnlyUploader struct{}

func (URLOnlyUploader) Upload(_ context.Context, _ uint, file ProofFile) (string, error) {
	url := strings.TrimSpace(file.URL)
	if url == "" {
		return "", errors.NewAppError(errors.ErrCodeUploadFailed,
			fmt.Sprintf("không thể lưu tệp %s: chưa cấu hình nơi lưu minh chứng", file.Filename), nil)
	}
	return url, nil
}
