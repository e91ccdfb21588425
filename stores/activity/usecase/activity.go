package usecase

import (
	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain/activity"
)

type ActivityUseCaseCfg struct {
	ActivityRepo activity.Repo
}

type impl struct {
	activityRepo activity.Repo
}

func New(cfg *ActivityUseCaseCfg) activity.UseCase {
	return &impl{
		activityRepo: cfg.ActivityRepo,
	}
}

func (im *impl) FindAll(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) ([]*activity.Activity, error) {
	res, err := im.activityRepo.FindAll(c, opts...)
	if err != nil {
		c.WithFields(log.Fields{
			"err": err,
		}).Error("failed to activityRepo.FindAll")
		return nil, err
	}
	return res, nil
}
