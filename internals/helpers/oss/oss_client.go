// internals/helpers/oss/oss_client.go
package helper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"librarydesk_backend/internals/configs"
	helper "librarydesk_backend/internals/helpers"
)

// MaxUploadSize guards controllers before anything is read into memory.
const MaxUploadSize = int64(5 * 1024 * 1024)

/* =======================================================================
   WebP options (env driven)
======================================================================= */

type WebPOptions struct {
	MaxW    int
	MaxH    int
	Quality float32
}

func DefaultWebPOptions() WebPOptions {
	return WebPOptions{
		MaxW:    configs.GetInt("IMAGE_WEBP_MAX_W"),
		MaxH:    configs.GetInt("IMAGE_WEBP_MAX_H"),
		Quality: float32(configs.GetInt("IMAGE_WEBP_QUALITY")),
	}
}

/* =======================================================================
   Decode / resize / encode
======================================================================= */

func decodeImage(all []byte, filename string) (image.Image, error) {
	if len(all) == 0 {
		return nil, errors.New("empty file")
	}
	head := all
	if len(head) > 512 {
		head = head[:512]
	}
	ct := http.DetectContentType(head)
	if !strings.HasPrefix(ct, "image/") {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}

	switch {
	case strings.Contains(ct, "jpeg"):
		// phone photos of ID cards carry EXIF rotation
		return imaging.Decode(bytes.NewReader(all), imaging.AutoOrientation(true))
	case strings.Contains(ct, "png"):
		return png.Decode(bytes.NewReader(all))
	case strings.Contains(ct, "webp"):
		return webp.Decode(bytes.NewReader(all))
	}
	return nil, errors.Errorf("unsupported image format: %s", ct)
}

// downscale keeps aspect ratio and only ever shrinks.
func downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if (maxW <= 0 || w <= maxW) && (maxH <= 0 || h <= maxH) {
		return src
	}
	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	nw := int(math.Max(1, math.Round(float64(w)*scale)))
	nh := int(math.Max(1, math.Round(float64(h)*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// ConvertToWebP reads, decodes, downscales and re-encodes an upload.
func ConvertToWebP(r io.Reader, filename string, opt WebPOptions) ([]byte, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	img, err := decodeImage(all, filename)
	if err != nil {
		return nil, err
	}
	img = downscale(img, opt.MaxW, opt.MaxH)

	q := opt.Quality
	if q <= 0 {
		q = 80
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, errors.Wrap(err, "encode webp")
	}
	return buf.Bytes(), nil
}

/* =======================================================================
   OSS service
======================================================================= */

type OSSService struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	Prefix     string
}

// NewOSSServiceFromEnv reads ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET (+ optional SECURITY_TOKEN).
func NewOSSServiceFromEnv(prefix string) (*OSSService, error) {
	endpoint := configs.GetEnv("ALI_OSS_ENDPOINT")
	ak := configs.GetEnv("ALI_OSS_ACCESS_KEY")
	sk := configs.GetEnv("ALI_OSS_SECRET_KEY")
	sts := configs.GetEnv("ALI_OSS_SECURITY_TOKEN")
	bucketName := configs.GetEnv("ALI_OSS_BUCKET")
	if endpoint == "" || ak == "" || sk == "" || bucketName == "" {
		return nil, errors.New("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var opts []oss.ClientOption
	if sts != "" {
		opts = append(opts, oss.SecurityToken(sts))
	}
	client, err := oss.New(endpoint, ak, sk, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "oss.New")
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, errors.Wrap(err, "client.Bucket")
	}
	log.Printf("[OSS] bucket %s ready (prefix=%q)", bucketName, prefix)

	return &OSSService{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   endpoint,
		BucketName: bucketName,
		Prefix:     strings.Trim(prefix, "/"),
	}, nil
}

func putOptions(ctx context.Context, contentType string) []oss.Option {
	return []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
}

// UploadAsWebP re-encodes an image upload and stores it under dir. Returns the public URL.
func (s *OSSService) UploadAsWebP(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", errors.New("nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open file")
	}
	defer src.Close()

	data, err := ConvertToWebP(src, fh.Filename, DefaultWebPOptions())
	if err != nil {
		return "", err
	}
	key := s.buildObjectKey(dir, strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))+".webp")
	if err := s.Bucket.PutObject(key, bytes.NewReader(data), putOptions(ctx, "image/webp")...); err != nil {
		return "", errors.Wrap(err, "put object")
	}
	return s.PublicURL(key), nil
}

// UploadRaw stores the upload as-is (PDF receipts and the like).
func (s *OSSService) UploadRaw(ctx context.Context, dir string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", errors.New("nil file header")
	}
	src, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "open file")
	}
	defer src.Close()

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	key := s.buildObjectKey(dir, fh.Filename)
	if err := s.Bucket.PutObject(key, src, putOptions(ctx, ct)...); err != nil {
		return "", errors.Wrap(err, "put object")
	}
	return s.PublicURL(key), nil
}

func (s *OSSService) DeleteByPublicURL(ctx context.Context, publicURL string) error {
	key, err := ExtractKeyFromPublicURL(publicURL)
	if err != nil {
		return err
	}
	return s.Bucket.DeleteObject(key, oss.WithContext(ctx))
}

/* =======================================================================
   Keys & URLs
======================================================================= */

func (s *OSSService) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if base := configs.GetEnv("ALI_OSS_PUBLIC_BASE"); base != "" {
		return strings.TrimRight(base, "/") + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

func ExtractKeyFromPublicURL(publicURL string) (string, error) {
	if publicURL == "" {
		return "", errors.New("empty url")
	}
	if base := configs.GetEnv("ALI_OSS_PUBLIC_BASE"); base != "" {
		base = strings.TrimRight(base, "/") + "/"
		if strings.HasPrefix(publicURL, base) {
			return strings.TrimPrefix(publicURL, base), nil
		}
	}
	u := publicURL
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 && i+1 < len(u) {
		return u[i+1:], nil
	}
	return "", errors.Errorf("cannot extract key from url: %s", publicURL)
}

// buildObjectKey → <prefix>/<dir>/<slug>_<yyyymmdd_hhmmss>_<rand><ext>
func (s *OSSService) buildObjectKey(dir, filename string) string {
	return ObjectKey(s.Prefix, dir, filename, time.Now())
}

func ObjectKey(prefix, dir, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := helper.Slugify(strings.TrimSuffix(filename, filepath.Ext(filename)), 60)

	parts := make([]string, 0, 3)
	for _, p := range []string{prefix, dir} {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	parts = append(parts, fmt.Sprintf("%s_%s_%s%s", base, now.Format("20060102_150405"), randHex(3), ext))
	return strings.Join(parts, "/")
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
