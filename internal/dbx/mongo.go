package dbx

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/truthmate/truthmate/internal/common"
)

// ClassifyMongo translates driver errors of the document backend:
// missing documents become common.ErrorNotFound, duplicate keys
// common.ErrorConflict and network, timeout or server-selection failures
// common.ErrStorageUnavailable.
func ClassifyMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return common.ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", common.ErrorConflict, err)
	case errors.Is(err, common.ErrStorageUnavailable):
		return err
	case errors.Is(err, mongo.ErrClientDisconnected),
		mongo.IsNetworkError(err),
		mongo.IsTimeout(err):
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	default:
		return err
	}
}
