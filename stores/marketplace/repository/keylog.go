package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/scimarket/goapi/base/ctx"
	"github.com/scimarket/goapi/base/log"
	"github.com/scimarket/goapi/domain"
	"github.com/scimarket/goapi/domain/marketplace"
	"github.com/scimarket/goapi/service/query"
)

type keyLogRepoImpl struct {
	q query.Mongo
}

// NewKeyLogRepo creates the append-only key log behind the resumable bulk
// unwind. Seq assignment relies on the host serializing book operations;
// there is no concurrent appender by construction.
func NewKeyLogRepo(q query.Mongo) marketplace.KeyLogRepo {
	return &keyLogRepoImpl{q}
}

func (im *keyLogRepoImpl) Append(c ctx.Ctx, book marketplace.Book, key string) (uint64, error) {
	seq, err := im.Count(c, book)
	if err != nil {
		return 0, err
	}

	entry := marketplace.KeyLogEntry{Book: book, Seq: seq, Key: key}
	if err := im.q.Insert(c, domain.TableBookKeyLog, &entry); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": book,
			"key":  key,
		}).Error("failed to q.Insert")
		return 0, err
	}
	return seq, nil
}

func (im *keyLogRepoImpl) Count(c ctx.Ctx, book marketplace.Book) (uint64, error) {
	cnt, err := im.q.Count(c, domain.TableBookKeyLog, bson.M{"book": book})
	if err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": book,
		}).Error("failed to q.Count")
		return 0, err
	}
	return uint64(cnt), nil
}

func (im *keyLogRepoImpl) Range(c ctx.Ctx, book marketplace.Book, from uint64, limit int) ([]marketplace.KeyLogEntry, error) {
	res := []marketplace.KeyLogEntry{}
	qry := bson.M{"book": book, "seq": bson.M{"$gte": from}}
	if err := im.q.Search(c, domain.TableBookKeyLog, 0, limit, "seq", qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":  err,
			"book": book,
			"from": from,
		}).Error("failed to q.Search")
		return nil, err
	}
	return res, nil
}

