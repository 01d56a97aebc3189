package service

import (
	"context"

	"github.com/mohitkumar/quorum/auth"
	"github.com/mohitkumar/quorum/container"
	"github.com/mohitkumar/quorum/logger"
	"github.com/mohitkumar/quorum/model"
	"go.uber.org/zap"
)

// MetadataService owns the schema lifecycle. Schemas are validated and
// normalized before they are stored; invalid schemas never reach storage.
type MetadataService struct {
	container *container.DIContainer
}

func NewMetadataService(container *container.DIContainer) *MetadataService {
	return &MetadataService{container: container}
}

func (s *MetadataService) SaveSchema(ctx context.Context, schema *model.ProcessSchema) error {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return err
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	schema.OwnerProfileId = actor.ProfileId
	if err := s.container.GetStorage().SaveProcessSchema(*schema); err != nil {
		return err
	}
	s.container.GetSchemaCache().Invalidate(schema.Name)
	logger.Info("schema saved", zap.String("name", schema.Name), zap.String("ownerProfileId", actor.ProfileId))
	return nil
}

func (s *MetadataService) GetSchema(ctx context.Context, name string) (*model.ProcessSchema, error) {
	if _, err := auth.FromContext(ctx); err != nil {
		return nil, err
	}
	return s.container.GetSchemaCache().Get(name)
}

func (s *MetadataService) DeleteSchema(ctx context.Context, name string) error {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return err
	}
	schema, err := s.container.GetSchemaCache().Get(name)
	if err != nil {
		return err
	}
	if schema.OwnerProfileId != "" && schema.OwnerProfileId != actor.ProfileId && !actor.HasRole(auth.ROLE_OWNER) {
		return model.UnauthorizedError{Message: "only the schema owner can delete it"}
	}
	if err := s.container.GetStorage().DeleteProcessSchema(name); err != nil {
		return err
	}
	s.container.GetSchemaCache().Invalidate(name)
	logger.Info("schema deleted", zap.String("name", name))
	return nil
}
