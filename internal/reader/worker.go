package reader

import (
	"context"
	"image"
)

type fetchResult struct {
	epoch uint64
	page  int
	img   image.Image
	err   error
}

type buildJob struct {
	epoch   uint64
	gen     uint64
	page    int
	side    Side
	rect    Rect
	img     image.Image
	builder ProtocolBuilder
}

type protocolResult struct {
	epoch uint64
	gen   uint64
	page  int
	side  Side
	rect  Rect
	proto Protocol
	err   error
}

// fetchPage downloads and decodes one page. A download permit is held for
// the network call only; decoding runs outside the pool.
func (c *Coordinator) fetchPage(ctx context.Context, epoch uint64, page int, url string) {
	res := fetchResult{epoch: epoch, page: page}
	res.img, res.err = c.download(ctx, url)

	select {
	case c.fetchDone <- res:
	case <-ctx.Done():
	}
}

func (c *Coordinator) download(ctx context.Context, url string) (image.Image, error) {
	if err := c.fetchPermits.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	data, err := c.source.DownloadBytes(ctx, url)
	c.fetchPermits.Release(1)
	if err != nil {
		return nil, err
	}
	return c.decoder.Decode(data)
}

func (c *Coordinator) buildProtocol(ctx context.Context, job buildJob) {
	res := protocolResult{
		epoch: job.epoch,
		gen:   job.gen,
		page:  job.page,
		side:  job.side,
		rect:  job.rect,
	}
	if err := c.buildPermits.Acquire(ctx, 1); err != nil {
		res.err = err
	} else {
		res.proto, res.err = job.builder.Build(job.img, job.rect)
		c.buildPermits.Release(1)
	}

	select {
	case c.protoDone <- res:
	case <-ctx.Done():
	}
}
