package mocks

//go:generate go run github.com/golang/mock/mockgen -destination=mock_video_repository.go -package=mocks github.com/bionicotaku/lingo-services-media/internal/services VideoRepository
//go:generate go run github.com/golang/mock/mockgen -destination=mock_reference_checker.go -package=mocks github.com/bionicotaku/lingo-services-media/internal/services ReferenceChecker
//go:generate go run github.com/golang/mock/mockgen -destination=mock_blob_store.go -package=mocks github.com/bionicotaku/lingo-services-media/internal/services BlobStore
//go:generate go run github.com/golang/mock/mockgen -destination=mock_media_event_publisher.go -package=mocks github.com/bionicotaku/lingo-services-media/internal/services MediaEventPublisher
