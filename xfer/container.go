package xfer

import (
	"context"

	"github.com/catalyst-cloud/objectmigrate/cmn"
	"github.com/catalyst-cloud/objectmigrate/cos"
	"github.com/catalyst-cloud/objectmigrate/gateway"
)

// ContainerResult summarizes migrating one source container.
type ContainerResult struct {
	Container string
	Created   bool
	CreateErr error // non-nil means every object in this container was skipped
	Objects   []Result
}

// ContainerMigrator is C6: ensure the target container exists (copying
// only the two ACL headers from the source), then route every source
// object through a Migrator.
type ContainerMigrator struct {
	Source   gateway.Gateway
	Target   gateway.Gateway
	Migrator *Migrator
}

// MigrateContainer migrates every object in container. If the target
// container cannot be created, the error is recorded in CreateErr, no
// objects are read from the source, and Objects stays empty.
func (cmig *ContainerMigrator) MigrateContainer(ctx context.Context, tenant, container string) ContainerResult {
	result := ContainerResult{Container: container}

	_, err := cmig.Target.HeadContainer(ctx, tenant, container)
	switch err {
	case nil:
		// already present, nothing to copy
	case cmn.ErrNotFound:
		headers := map[string]string{}
		if srcHeaders, serr := cmig.Source.HeadContainer(ctx, tenant, container); serr == nil {
			if v, ok := srcHeaders[cos.HdrContainerRead]; ok {
				headers[cos.HdrContainerRead] = v
			}
			if v, ok := srcHeaders[cos.HdrContainerWrite]; ok {
				headers[cos.HdrContainerWrite] = v
			}
		}
		if cerr := cmig.Target.PostContainer(ctx, tenant, container, headers); cerr != nil {
			result.CreateErr = cmn.Wrapf(cerr, "create target container %s", container)
			return result
		}
		result.Created = true
	default:
		result.CreateErr = cmn.Wrapf(err, "head target container %s", container)
		return result
	}

	objects, err := cmig.Source.ListObjects(ctx, tenant, container)
	if err != nil {
		result.CreateErr = cmn.Wrapf(err, "list source objects in %s", container)
		return result
	}

	result.Objects = make([]Result, 0, len(objects))
	for _, obj := range objects {
		result.Objects = append(result.Objects, cmig.Migrator.MigrateObject(ctx, tenant, container, obj.Name, obj))
	}
	return result
}
