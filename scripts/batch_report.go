// 手动导出批次统计脚本
//
// 逐个批次输出在训学员数、等级分布与平均准确率，已归档学员不计入。
//
// 用法: go run scripts/batch_report.go

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"training_progress_backend/internal/config"
	"training_progress_backend/internal/model"
	"training_progress_backend/internal/repository"
	"training_progress_backend/internal/service"
	"training_progress_backend/pkg/database"
	"training_progress_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	batchService := service.NewBatchService(
		repository.NewBatchRepository(db),
		repository.NewCadetProgressRepository(db),
		service.NewMemoryStatsCache(),
		db,
	)

	all, err := batchService.AllBatchStats(context.Background())
	if err != nil {
		log.Fatalf("统计失败: %v", err)
	}

	for _, stats := range all {
		fmt.Printf("%s (v%d) cadets=%d avg_accuracy=%.2f\n", stats.BatchCode, stats.Version, stats.Total, stats.AvgAccuracy)
		for _, level := range model.AllLevels {
			fmt.Printf("  %s: %d\n", level, stats.LevelDistribution[level])
		}
	}
	log.Println("完成！")
}
