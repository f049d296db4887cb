// Package main 提供媒体服务的启动入口。
// 负责加载配置、初始化依赖（通过 Wire）、启动 HTTP/gRPC Server 与 Outbox 投递 worker 并优雅关闭。
package main

import (
	"context"
	"errors"
	"flag"
	"sync"

	"github.com/bionicotaku/lingo-services-media/internal/infrastructure/blobstore"
	configloader "github.com/bionicotaku/lingo-services-media/internal/infrastructure/configloader"
	"github.com/bionicotaku/lingo-services-media/internal/services"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/grpc"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs" // 自动设置 GOMAXPROCS 为容器 CPU 配额
)

// provideBlobStore 按 storage.driver 选择存储后端，并以 services.BlobStore 暴露给上传用例。
func provideBlobStore(cfg blobstore.Config, logger log.Logger) (services.BlobStore, error) {
	return blobstore.NewStore(cfg, logger)
}

// newApp 组装 Kratos 应用：HTTP 承载业务接口，gRPC 仅承载健康检查。
// publisher 为 nil 时（未配置编码请求 topic）不启动后台投递。
func newApp(
	_ *obswire.Component,
	logger log.Logger,
	hs *khttp.Server,
	gs *grpc.Server,
	meta configloader.ServiceInfo,
	publisher *outboxpublisher.Runner,
) *kratos.App {
	options := []kratos.Option{
		kratos.ID(meta.InstanceID),
		kratos.Name(meta.Name),
		kratos.Version(meta.Version),
		kratos.Metadata(map[string]string{"environment": meta.Environment}),
		kratos.Logger(logger),
		kratos.Server(hs, gs),
	}

	type worker struct {
		name string
		run  func(context.Context) error
	}

	var workers []worker
	if publisher != nil {
		workers = append(workers, worker{name: "outbox publisher", run: publisher.Run})
	}
	if len(workers) > 0 {
		var (
			wg      sync.WaitGroup
			cancels []context.CancelFunc
		)
		helper := log.NewHelper(logger)

		options = append(options,
			kratos.BeforeStart(func(ctx context.Context) error {
				cancels = make([]context.CancelFunc, len(workers))
				for i := range workers {
					runCtx, cancel := context.WithCancel(ctx)
					cancels[i] = cancel
					wg.Add(1)
					w := workers[i]
					go func() {
						defer wg.Done()
						if err := w.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
							helper.Warnf("%s stopped: %v", w.name, err)
						}
					}()
				}
				return nil
			}),
			kratos.AfterStop(func(ctx context.Context) error {
				for _, cancel := range cancels {
					if cancel != nil {
						cancel()
					}
				}
				done := make(chan struct{})
				go func() {
					wg.Wait()
					close(done)
				}()
				select {
				case <-ctx.Done():
				case <-done:
				}
				return nil
			}),
		)
	}

	return kratos.New(options...)
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	params := configloader.Params{ConfPath: *confFlag}

	// wireApp 由 wire_gen.go 生成，依赖注入顺序见 wire.go
	app, cleanupApp, err := wireApp(ctx, params)
	if err != nil {
		panic(err)
	}
	defer cleanupApp()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
