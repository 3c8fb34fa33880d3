package vision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	rektypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/your-org/memorybook/internal/models"
	"github.com/your-org/memorybook/internal/observability"
)

// RekognitionProvider implements Provider on top of AWS Rekognition
// face collections.
type RekognitionProvider struct {
	client *rekognition.Client
}

func NewRekognitionProvider(awsCfg aws.Config) *RekognitionProvider {
	return &RekognitionProvider{
		client: rekognition.NewFromConfig(awsCfg),
	}
}

func (p *RekognitionProvider) DescribeCollection(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	defer observe("describe_collection")()

	out, err := p.client.DescribeCollection(ctx, &rekognition.DescribeCollectionInput{
		CollectionId: aws.String(collectionID),
	})
	if err != nil {
		var notFound *rektypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, ErrCollectionNotFound
		}
		return nil, fmt.Errorf("describe collection %s: %w", collectionID, err)
	}

	info := &CollectionInfo{ARN: aws.ToString(out.CollectionARN)}
	if out.FaceCount != nil {
		info.FaceCount = int(*out.FaceCount)
	}
	return info, nil
}

func (p *RekognitionProvider) CreateCollection(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	defer observe("create_collection")()

	out, err := p.client.CreateCollection(ctx, &rekognition.CreateCollectionInput{
		CollectionId: aws.String(collectionID),
	})
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", collectionID, err)
	}
	return &CollectionInfo{ARN: aws.ToString(out.CollectionArn)}, nil
}

func (p *RekognitionProvider) IndexFaces(ctx context.Context, collectionID string, image []byte, externalID string, maxFaces int) ([]DetectedFace, error) {
	defer observe("index_faces")()

	out, err := p.client.IndexFaces(ctx, &rekognition.IndexFacesInput{
		CollectionId:    aws.String(collectionID),
		Image:           &rektypes.Image{Bytes: image},
		ExternalImageId: aws.String(externalID),
		MaxFaces:        aws.Int32(int32(maxFaces)),
		QualityFilter:   rektypes.QualityFilterAuto,
		DetectionAttributes: []rektypes.Attribute{
			rektypes.AttributeDefault,
		},
	})
	if err != nil {
		var badFormat *rektypes.InvalidImageFormatException
		var tooLarge *rektypes.ImageTooLargeException
		if errors.As(err, &badFormat) || errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: %s", ErrBadImage, err.Error())
		}
		return nil, fmt.Errorf("index faces in %s: %w", collectionID, err)
	}

	faces := make([]DetectedFace, 0, len(out.FaceRecords))
	for _, rec := range out.FaceRecords {
		if rec.Face == nil || rec.Face.FaceId == nil {
			continue
		}
		faces = append(faces, toDetectedFace(rec.Face))
	}
	return faces, nil
}

func (p *RekognitionProvider) SearchFaces(ctx context.Context, collectionID, faceID string, minSimilarity float64, maxMatches int) ([]FaceMatch, error) {
	defer observe("search_faces")()

	out, err := p.client.SearchFaces(ctx, &rekognition.SearchFacesInput{
		CollectionId:       aws.String(collectionID),
		FaceId:             aws.String(faceID),
		FaceMatchThreshold: aws.Float32(float32(minSimilarity)),
		MaxFaces:           aws.Int32(int32(maxMatches)),
	})
	if err != nil {
		// Searching the only face in a collection is rejected as an
		// invalid parameter. That just means there are no peers yet.
		var invalidParam *rektypes.InvalidParameterException
		if errors.As(err, &invalidParam) {
			return nil, nil
		}
		return nil, fmt.Errorf("search faces in %s: %w", collectionID, err)
	}

	matches := make([]FaceMatch, 0, len(out.FaceMatches))
	for _, m := range out.FaceMatches {
		if m.Face == nil || m.Face.FaceId == nil {
			continue
		}
		fm := FaceMatch{ProviderFaceID: *m.Face.FaceId}
		if m.Similarity != nil {
			fm.Similarity = float64(*m.Similarity)
		}
		matches = append(matches, fm)
	}
	return matches, nil
}

func toDetectedFace(f *rektypes.Face) DetectedFace {
	df := DetectedFace{ProviderFaceID: aws.ToString(f.FaceId)}
	if f.Confidence != nil {
		df.Confidence = float64(*f.Confidence)
	}
	if f.BoundingBox != nil {
		df.Box = models.BoundingBox{
			Left:   float64(aws.ToFloat32(f.BoundingBox.Left)),
			Top:    float64(aws.ToFloat32(f.BoundingBox.Top)),
			Width:  float64(aws.ToFloat32(f.BoundingBox.Width)),
			Height: float64(aws.ToFloat32(f.BoundingBox.Height)),
		}
	}
	return df
}

func observe(operation string) func() {
	start := time.Now()
	return func() {
		observability.ProviderCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
